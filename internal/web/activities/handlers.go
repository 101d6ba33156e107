package activities

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/activities/internal/cache"
	"example.com/activities/internal/client"
	"example.com/activities/internal/domain"
	"example.com/activities/internal/web/fetch"
	"example.com/activities/internal/web/htmx"
	"example.com/activities/internal/web/session"
)

const (
	pageTitle = "Activities"
	pagePath  = "/activities"

	msgMissingFields  = "Name and description are required."
	msgSignedOut      = "Sign in to manage activities."
	msgCreateInFlight = "An activity is already being created."
	msgDeleteInFlight = "An activity is already being deleted."
	msgMissingID      = "Missing activity id."
)

// API is the subset of the activities REST client the page uses.
type API interface {
	List(ctx context.Context) ([]client.Activity, error)
	Create(ctx context.Context, token, name, description, idempotencyKey string) (client.Activity, error)
	Delete(ctx context.Context, token, id string) (client.DeleteResponse, error)
}

type createInput struct {
	Draft
	IdempotencyKey string
}

// Options tunes the page handler.
type Options struct {
	// RenderWait is how long a render waits for a pending list refresh before
	// showing the loading state or the previous list.
	RenderWait time.Duration
	// InvalidationToken, when set, must be presented as a bearer token to the
	// cache invalidation endpoint.
	InvalidationToken string
	Logger            *slog.Logger
}

// Handler serves the activities page.
type Handler struct {
	cache   *fetch.Cache
	list    *fetch.Query[[]client.Activity]
	create  *fetch.Mutation[createInput, client.Activity]
	remove  *fetch.Mutation[string, client.DeleteResponse]
	opts    Options
	logger  *slog.Logger
	newUUID func() string
}

// NewHandler wires the page queries and mutations against api through c.
func NewHandler(api API, c *fetch.Cache, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cache: c,
		list:  fetch.NewQuery(c, domain.ResourceKey, api.List),
		create: fetch.NewMutation("create_activity", c, func(ctx context.Context, token string, in createInput) (client.Activity, error) {
			return api.Create(ctx, token, in.Name, in.Description, in.IdempotencyKey)
		}, domain.ResourceKey),
		remove:  fetch.NewMutation("delete_activity", c, api.Delete, domain.ResourceKey),
		opts:    opts,
		logger:  logger.With("component", "activities_page"),
		newUUID: uuid.NewString,
	}
}

// Invalidator exposes the page cache to event-driven invalidation.
func (h *Handler) Invalidator() cache.Invalidator {
	return h.cache
}

// RegisterRoutes binds the page routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, pagePath, http.StatusFound)
	})
	mux.HandleFunc("GET "+pagePath, h.showPage)
	mux.HandleFunc("POST "+pagePath, h.submitCreate)
	mux.HandleFunc("POST "+pagePath+"/delete", h.requestDelete)
	mux.HandleFunc("POST /cache/invalidate", h.invalidate)
}

func (h *Handler) showPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.buildView(r.Context(), Draft{}, "", ""))
}

func (h *Handler) submitCreate(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, h.buildView(r.Context(), Draft{}, "", "Unable to read the form."))
		return
	}
	in := createInput{
		Draft: Draft{
			Name:        r.PostForm.Get("name"),
			Description: r.PostForm.Get("description"),
		},
		IdempotencyKey: strings.TrimSpace(r.PostForm.Get("idempotency_key")),
	}

	fail := func(status int, msg string) {
		h.render(w, r, status, h.buildView(r.Context(), in.Draft, in.IdempotencyKey, msg))
	}

	switch {
	case token == "":
		fail(http.StatusUnauthorized, msgSignedOut)
		return
	case in.Missing():
		fail(http.StatusUnprocessableEntity, msgMissingFields)
		return
	}

	call := createInput{
		Draft:          Draft{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)},
		IdempotencyKey: in.IdempotencyKey,
	}
	created, err := h.create.Mutate(r.Context(), token, token, call)
	if err != nil {
		status, msg := h.classify(err, msgCreateInFlight)
		h.logger.Warn("create activity failed", "status", status, "error", err)
		fail(status, msg)
		return
	}
	h.logger.Info("activity created", "activity_id", created.ID)
	h.afterMutation(w, r, Draft{}, "")
}

func (h *Handler) requestDelete(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, h.buildView(r.Context(), Draft{}, "", "Unable to read the form."))
		return
	}
	id := strings.TrimSpace(r.PostForm.Get("id"))
	// htmx delete forms include the create form's fields so an unsaved draft
	// survives the re-render.
	draft := Draft{
		Name:        r.PostForm.Get("name"),
		Description: r.PostForm.Get("description"),
	}
	key := strings.TrimSpace(r.PostForm.Get("idempotency_key"))

	fail := func(status int, msg string) {
		h.render(w, r, status, h.buildView(r.Context(), draft, key, msg))
	}

	switch {
	case token == "":
		fail(http.StatusUnauthorized, msgSignedOut)
		return
	case id == "":
		fail(http.StatusUnprocessableEntity, msgMissingID)
		return
	}

	if _, err := h.remove.Mutate(r.Context(), token, token, id); err != nil {
		status, msg := h.classify(err, msgDeleteInFlight)
		h.logger.Warn("delete activity failed", "activity_id", id, "status", status, "error", err)
		fail(status, msg)
		return
	}
	h.logger.Info("activity deleted", "activity_id", id)
	h.afterMutation(w, r, draft, key)
}

// afterMutation answers a successful write: htmx gets the refreshed fragment
// in place with draft still in the form, plain forms are redirected back to
// the page.
func (h *Handler) afterMutation(w http.ResponseWriter, r *http.Request, draft Draft, idempotencyKey string) {
	if htmx.IsHTMXRequest(r) {
		h.render(w, r, http.StatusOK, h.buildView(r.Context(), draft, idempotencyKey, ""))
		return
	}
	htmx.Redirect(w, r, pagePath)
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	if h.opts.InvalidationToken != "" {
		presented := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.opts.InvalidationToken)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var req cache.InvalidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	keys := make([]string, 0, len(req.Keys))
	for _, key := range req.Keys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	_ = h.cache.Invalidate(r.Context(), keys...)
	h.logger.Debug("cache invalidated", "keys", keys)
	w.WriteHeader(http.StatusNoContent)
}

// classify maps a mutation failure to a status and the message shown on the page.
func (h *Handler) classify(err error, inFlightMsg string) (int, string) {
	if errors.Is(err, fetch.ErrInFlight) {
		return http.StatusConflict, inFlightMsg
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return http.StatusUnprocessableEntity, apiErr.Error()
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict:
			return apiErr.Status, apiErr.Error()
		}
		return http.StatusBadGateway, apiErr.Error()
	}
	return http.StatusBadGateway, err.Error()
}

func (h *Handler) buildView(ctx context.Context, draft Draft, idempotencyKey, localErr string) PageView {
	token := session.TokenFromContext(ctx)

	v := newPageView(h.list.Load(ctx, h.opts.RenderWait))
	v.SignedIn = token != ""
	v.Draft = draft
	v.Error = localErr
	if v.SignedIn {
		v.Creating = h.create.Pending(token)
		v.Deleting = h.remove.Pending(token)
	}
	v.IdempotencyKey = idempotencyKey
	if v.IdempotencyKey == "" {
		v.IdempotencyKey = h.newUUID()
	}
	return v
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, v PageView) {
	w.Header().Set("Cache-Control", "no-store")
	htmx.RenderPage(w, r, status, Page(v), Layout(pageTitle, v.Loading, Page(v)))
}
