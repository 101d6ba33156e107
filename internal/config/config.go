// Package config centralises configuration parsing for the activities binaries.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Logging configures the structured logger shared by every binary.
type Logging struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"json"`
	Output    string `env:"LOG_OUTPUT" envDefault:"stdout"`
	AddSource bool   `env:"LOG_ADD_SOURCE"`
}

// Auth holds the JWT verification parameters.
type Auth struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"activities.identity"`
}

// Kafka lists the brokers shared by producers and consumers.
type Kafka struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"kafka:9092" envSeparator:","`
}

// API captures runtime configuration values for the activities API.
type API struct {
	Logging
	Auth
	Kafka
	HTTPAddress        string        `env:"HTTP_ADDRESS" envDefault:":8080"`
	PostgresURL        string        `env:"POSTGRES_URL"`
	SchemaRegistryURL  string        `env:"SCHEMA_REGISTRY_URL" envDefault:"http://schema-registry:8081"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"25"`
	AllowedOrigin      string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	// CacheInvalidationURL points at the web tier's invalidate endpoint. Empty disables HTTP invalidation.
	CacheInvalidationURL   string        `env:"CACHE_INVALIDATION_URL"`
	CacheInvalidationToken string        `env:"CACHE_INVALIDATION_TOKEN"`
	CacheInvalidationWait  time.Duration `env:"CACHE_INVALIDATION_TIMEOUT" envDefault:"2s"`
}

// Consumer configures the event log consumer.
type Consumer struct {
	Logging
	Kafka
	PostgresURL     string   `env:"POSTGRES_URL,required"`
	ConsumerGroupID string   `env:"CONSUMER_GROUP_ID" envDefault:"activities-event-log"`
	ConsumerTopics  []string `env:"CONSUMER_TOPICS" envDefault:"activity_events" envSeparator:","`
	MetricsAddress  string   `env:"METRICS_ADDRESS" envDefault:":9191"`
}

// DLQ configures the dead-letter replay worker.
type DLQ struct {
	Logging
	PostgresURL    string        `env:"POSTGRES_URL,required"`
	MetricsAddress string        `env:"METRICS_ADDRESS" envDefault:":9192"`
	PollInterval   time.Duration `env:"DLQ_POLL_INTERVAL" envDefault:"30s"`
	MaxRetries     int           `env:"DLQ_MAX_RETRIES" envDefault:"5"`
	BaseDelay      time.Duration `env:"DLQ_BASE_DELAY" envDefault:"1m"`
	BatchSize      int           `env:"DLQ_BATCH_SIZE" envDefault:"50"`
}

// Web configures the server-rendered activities page.
type Web struct {
	Logging
	Kafka
	HTTPAddress     string        `env:"HTTP_ADDRESS" envDefault:":8090"`
	APIBaseURL      string        `env:"API_BASE_URL" envDefault:"http://activities-api:8080"`
	APITimeout      time.Duration `env:"API_TIMEOUT" envDefault:"5s"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	RenderWait      time.Duration `env:"RENDER_WAIT" envDefault:"300ms"`
	CacheEvents     bool          `env:"CACHE_EVENTS_ENABLED"`
	ConsumerGroupID string        `env:"CONSUMER_GROUP_ID" envDefault:"activities-web-cache"`
	// ConsumerGroupPerInstance suffixes ConsumerGroupID with the host name so
	// every replica sees every invalidation event.
	ConsumerGroupPerInstance bool     `env:"CONSUMER_GROUP_PER_INSTANCE" envDefault:"true"`
	ConsumerTopics           []string `env:"CONSUMER_TOPICS" envDefault:"activity_events" envSeparator:","`
	SessionCookie            string   `env:"SESSION_COOKIE" envDefault:"session_token"`
	// InvalidationToken guards POST /cache/invalidate. Empty accepts any caller.
	InvalidationToken string `env:"CACHE_INVALIDATION_TOKEN"`
}

// LoadAPI reads the API configuration from the environment.
func LoadAPI() (API, error) {
	return load[API]("api")
}

// LoadConsumer reads the consumer configuration from the environment.
func LoadConsumer() (Consumer, error) {
	cfg, err := load[Consumer]("consumer")
	if err != nil {
		return cfg, err
	}
	cfg.ConsumerTopics = trimAll(cfg.ConsumerTopics)
	return cfg, nil
}

// LoadDLQ reads the DLQ manager configuration from the environment.
func LoadDLQ() (DLQ, error) {
	return load[DLQ]("dlq manager")
}

// LoadWeb reads the web configuration from the environment.
func LoadWeb() (Web, error) {
	cfg, err := load[Web]("web")
	if err != nil {
		return cfg, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return cfg, fmt.Errorf("load web config: API_BASE_URL is required")
	}
	cfg.ConsumerTopics = trimAll(cfg.ConsumerTopics)
	if cfg.ConsumerGroupPerInstance {
		host, err := os.Hostname()
		if err != nil {
			return cfg, fmt.Errorf("load web config: resolve hostname: %w", err)
		}
		cfg.ConsumerGroupID = instanceGroupID(cfg.ConsumerGroupID, host)
	}
	return cfg, nil
}

func instanceGroupID(base, host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return base
	}
	return base + "-" + host
}

func load[T any](name string) (T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, fmt.Errorf("load %s config: %w", name, err)
	}
	return cfg, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
