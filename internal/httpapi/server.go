// Package httpapi exposes the tree service and its lookups as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexanderramin/opstree/internal/db"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/service"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Tree     service.TreeService
	Steps    service.TaskStepService
	Statuses service.StatusService
	Users    service.UserService
	Health   db.Pinger
	Logger   *slog.Logger
	// DefaultOwner is used for new projects when the request names none.
	DefaultOwner string
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.registerTreeRoutes()
	s.registerTaskStepRoutes()
	s.registerLookupRoutes()
	s.mux.HandleFunc("/api/health", s.handleHealth)
	return s
}

// Handler returns the mux wrapped with request-id and access logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLog(s.mux)
}

type requestIDKey struct{}

// RequestID returns the id assigned to the current request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		startedAt := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.deps.Logger.Log(ctx, level, "http_request",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(startedAt).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":   false,
				"data": map[string]any{"status": "degraded", "database": err.Error()},
			})
			return
		}
	}
	respondOK(w, map[string]any{"status": "ok", "database": "ok"})
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func respondTree(w http.ResponseWriter, res *domain.TreeResult) {
	writeJSON(w, http.StatusOK, treeResponse{OK: true, Rows: res.Rows, TaskCount: res.TaskCount})
}

func respondError(w http.ResponseWriter, code int, errCode string, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "code": errCode, "message": msg})
}

// respondServiceError maps the domain error taxonomy onto HTTP status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch domain.Classify(err) {
	case domain.KindValidation:
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", validationMessage(err))
	case domain.KindNotFound:
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		s.deps.Logger.ErrorContext(r.Context(), "request_failed",
			"request_id", RequestID(r.Context()),
			"path", r.URL.Path,
			"error", err.Error(),
		)
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "internal error")
	}
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeBody reads a JSON object into dst. An empty body leaves dst as is.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("body", "must be a JSON object: "+err.Error())
	}
	return nil
}

// requirePost writes 405 for anything but POST.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return false
	}
	return true
}
