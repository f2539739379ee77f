package in

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	timerdto "timekit/internal/modules/timer/dto"
	timerin "timekit/internal/modules/timer/port/in"
	apperrors "timekit/internal/platform/errors"
)

// HTTPHandler exposes timers as a small JSON API.
type HTTPHandler struct {
	usecase timerin.Usecase
	log     *slog.Logger
	router  chi.Router
}

func NewHTTPHandler(usecase timerin.Usecase, log *slog.Logger) *HTTPHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &HTTPHandler{usecase: usecase, log: log, router: chi.NewRouter()}
	h.routes()
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPHandler) routes() {
	h.router.Use(RequestLogging(h.log))
	h.router.Route("/api/v1/timers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{key}", h.handleStatus)
		r.Delete("/{key}", h.handleDelete)
		r.Post("/{key}/start", h.handleStart)
		r.Post("/{key}/pause", h.action(h.usecase.Pause))
		r.Post("/{key}/resume", h.action(h.usecase.Resume))
		r.Post("/{key}/reset", h.action(h.usecase.Reset))
		r.Post("/{key}/skip", h.action(h.usecase.Skip))
	})
}

type variantRequest struct {
	Kind        string `json:"kind"`
	DurationMs  int64  `json:"durationMs"`
	EveryCycles int    `json:"everyCycles"`
}

type phaseRequest struct {
	Kind       string          `json:"kind"`
	DurationMs int64           `json:"durationMs"`
	OnExpire   string          `json:"onExpire"`
	Variant    *variantRequest `json:"variant,omitempty"`
}

type startRequest struct {
	Widget      string         `json:"widget"`
	Phases      []phaseRequest `json:"phases"`
	CycleStart  int            `json:"cycleStart"`
	RepeatCount int            `json:"repeatCount"`
}

func (req startRequest) config() *timerdto.ConfigInput {
	if len(req.Phases) == 0 {
		return nil
	}
	cfg := &timerdto.ConfigInput{Widget: req.Widget, CycleStart: req.CycleStart, RepeatCount: req.RepeatCount}
	for _, p := range req.Phases {
		phase := timerdto.PhaseInput{Kind: p.Kind, Duration: time.Duration(p.DurationMs) * time.Millisecond, OnExpire: p.OnExpire}
		if p.Variant != nil {
			phase.Variant = &timerdto.VariantInput{Kind: p.Variant.Kind, Duration: time.Duration(p.Variant.DurationMs) * time.Millisecond, Every: p.Variant.EveryCycles}
		}
		cfg.Phases = append(cfg.Phases, phase)
	}
	return cfg
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	timers, err := h.usecase.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, timers)
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.usecase.Status(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.usecase.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	out, err := h.usecase.Start(r.Context(), timerdto.StartInput{Key: chi.URLParam(r, "key"), Config: req.config()})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) action(fn func(ctx context.Context, key string) (timerdto.TimerOutput, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("timer api error", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// StatusFor maps application errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition), errors.Is(err, apperrors.ErrActiveSessionExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RequestLogging logs one line per request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
