// Package httpapi exposes the festival admin console operations over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"festivalcore/internal/core"
	"festivalcore/pkg/domain"
)

// Headers set by the fronting auth proxy to identify the caller.
const (
	HeaderCaller      = "X-Festival-Caller"
	HeaderPermissions = "X-Festival-Permissions"
)

const maxBodyBytes = 1 << 20

// Handler routes admin console requests to the service.
type Handler struct {
	service   *core.Service
	logger    core.Logger
	metrics   http.Handler
	router    *mux.Router
	resources map[string]endpoint
}

// Option customises a Handler.
type Option func(*Handler)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(handler *Handler) {
		handler.metrics = h
	}
}

// WithLogger reports unexpected service failures to logger.
func WithLogger(logger core.Logger) Option {
	return func(handler *Handler) {
		if logger != nil {
			handler.logger = logger
		}
	}
}

// NewHandler constructs the HTTP surface for svc.
func NewHandler(svc *core.Service, opts ...Option) *Handler {
	h := &Handler{
		service: svc,
		logger:  core.NewNoopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.resources = map[string]endpoint{
		"admins":  newAdminResource(svc),
		"news":    newNewsResource(svc),
		"goods":   newGoodsResource(svc),
		"tickets": newTicketResource(svc),
	}
	h.router = h.routes()
	return h
}

func (h *Handler) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	const kind = "/{kind:admins|news|goods|tickets}"
	api.HandleFunc(kind, h.handleList).Methods(http.MethodGet)
	api.HandleFunc(kind, h.handleCreate).Methods(http.MethodPost)
	api.HandleFunc(kind+"/{id}", h.handleGet).Methods(http.MethodGet)
	api.HandleFunc(kind+"/{id}", h.handleDelete).Methods(http.MethodDelete)
	api.HandleFunc(kind+"/{id}/update", h.handleUpdate).Methods(http.MethodPost)
	api.HandleFunc(kind+"/{id}/overwrite", h.handleOverwrite).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "endpoint not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	}
	h.router.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) resource(r *http.Request) endpoint {
	return h.resources[mux.Vars(r)["kind"]]
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.resource(r).list(h, w, r)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	h.resource(r).get(h, w, r, mux.Vars(r)["id"])
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.resource(r).create(h, w, r, caller)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.resource(r).remove(h, w, r, caller, mux.Vars(r)["id"])
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.resource(r).update(h, w, r, caller, mux.Vars(r)["id"])
}

func (h *Handler) handleOverwrite(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.resource(r).overwrite(h, w, r, caller, mux.Vars(r)["id"])
}

// callerFromRequest reads the caller identity forwarded by the auth proxy.
// A request without permissions is a caller that may only read.
func callerFromRequest(r *http.Request) (core.Caller, error) {
	caller := core.Caller{ID: strings.TrimSpace(r.Header.Get(HeaderCaller))}
	raw := r.Header.Get(HeaderPermissions)
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		perm, err := domain.ParsePermission(part)
		if err != nil {
			return core.Caller{}, err
		}
		caller.Permissions = append(caller.Permissions, perm)
	}
	caller.Permissions = caller.Permissions.Normalize()
	return caller, nil
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound  core.ErrNotFound
		forbidden core.ErrForbidden
		violation core.RuleViolationError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &violation):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"violations": violation.Result.Violations,
		})
	case errors.Is(err, domain.ErrInvalid), errors.Is(err, core.ErrEmptyPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
