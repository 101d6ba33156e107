package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/activities/internal/client"
	"example.com/activities/internal/config"
	"example.com/activities/internal/consumer"
	"example.com/activities/internal/logging"
	httptransport "example.com/activities/internal/transport/http"
	"example.com/activities/internal/web/activities"
	"example.com/activities/internal/web/fetch"
	"example.com/activities/internal/web/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "activities-web: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWeb()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	api := client.New(cfg.APIBaseURL, cfg.APITimeout)
	queryCache := fetch.NewCache(cfg.CacheTTL,
		fetch.WithLogger(logger.With("component", "query_cache")),
		fetch.WithRefreshTimeout(cfg.APITimeout),
	)
	page := activities.NewHandler(api, queryCache, activities.Options{
		RenderWait:        cfg.RenderWait,
		InvalidationToken: cfg.InvalidationToken,
		Logger:            logger,
	})

	mux := http.NewServeMux()
	page.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var wg sync.WaitGroup
	if cfg.CacheEvents {
		startInvalidationConsumers(ctx, &wg, cfg, consumer.NewInvalidationHandler(page.Invalidator(), logger), logger)
	}

	handler := httptransport.Chain(mux,
		httptransport.RequestLogger(logger, "web"),
		session.Middleware(cfg.SessionCookie),
	)
	server := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.HTTPAddress), handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("activities web listening", "address", cfg.HTTPAddress, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		cancel()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	wg.Wait()
	logger.Info("activities web stopped")
	return nil
}

func startInvalidationConsumers(ctx context.Context, wg *sync.WaitGroup, cfg config.Web, handler consumer.Handler, logger *slog.Logger) {
	for _, topic := range cfg.ConsumerTopics {
		reader := consumer.NewKafkaReader(consumer.ReaderConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID:    cfg.ConsumerGroupID,
			Topic:      topic,
			FromLatest: true,
		})
		proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(logger.With("topic", topic)))

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer reader.Close()

			logger.Info("cache invalidation consumer started", "topic", topic, "group", cfg.ConsumerGroupID)
			if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("cache invalidation consumer stopped", "topic", topic, "error", err)
			}
		}()
	}
}
