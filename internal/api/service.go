// Package api implements the HTTP surface of the Study Drive backend:
// upload, paged listing, delete, signed download, rename and move, all
// backed by one object store and the drive package's key-namespace core.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"studydrive/internal/apierr"
	"studydrive/internal/authz"
	"studydrive/internal/drive"
	"studydrive/internal/metrics"
	"studydrive/internal/store"
)

const (
	AuthModeNone   = "none"
	AuthModeStatic = "static"
)

// Service carries the wiring for the HTTP handlers. Zero-value fields fall
// back to sensible defaults in Handler.
type Service struct {
	Store store.ObjectStore

	Authz      *authz.Engine
	AuthMode   string
	PublicRead bool

	Cache   *drive.ListCache
	Metrics *metrics.Metrics

	MaxUploadBytes    int64
	DefaultListLimit  int
	MaxListLimit      int
	DefaultSignExpiry time.Duration
	MaxSignExpiry     time.Duration

	PathLive           string
	PathReady          string
	ReadyCheck         func() error
	MetricsPath        string
	CORSAllowedOrigins []string

	Now    func() time.Time
	Logger *slog.Logger
}

type contextKey string

const requestIDContextKey contextKey = "request_id"

// requestInfo accumulates per-request fields for the completion log line.
type requestInfo struct {
	RequestID string
	Principal string
	Key       string
	ErrorCode string
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, info *requestInfo) error

func (s *Service) Handler() http.Handler {
	nowFn := s.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	route := func(action string, fn handlerFunc) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := nowFn()
			reqID := RequestIDFromContext(r.Context())
			info := &requestInfo{RequestID: reqID}
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			principal, err := s.authorize(r, action)
			if err == nil && s.Store == nil {
				err = drive.ErrNotConfigured
			}
			if err == nil {
				info.Principal = principal.Name
				err = fn(sw, r, info)
			}
			if err != nil {
				apiErr := apierr.MapError(err)
				info.ErrorCode = apiErr.Code
				apierr.Write(sw, reqID, apiErr, err.Error())
			}
			s.logRequest(logger, r, sw.status, time.Since(start), info)
		})
	}

	mux := http.NewServeMux()
	mux.Handle("POST /upload", route(authz.ActionWrite, s.handleUpload))
	mux.Handle("GET /files", route(authz.ActionRead, s.handleList))
	mux.Handle("DELETE /files", route(authz.ActionWrite, s.handleDelete))
	mux.Handle("GET /files/download", route(authz.ActionRead, s.handleDownload))
	mux.Handle("PUT /files/rename", route(authz.ActionWrite, s.handleRename))
	mux.Handle("PUT /files/move", route(authz.ActionWrite, s.handleMove))

	s.registerHealth(mux)
	if s.Metrics != nil && s.MetricsPath != "" {
		mux.Handle("GET "+s.MetricsPath, s.Metrics.Handler())
	}

	var handler http.Handler = requestIDMiddleware(mux)
	if len(s.CORSAllowedOrigins) > 0 {
		handler = corsMiddleware(s.CORSAllowedOrigins, handler)
	}
	return s.Metrics.Instrument(handler)
}

func (s *Service) registerHealth(mux *http.ServeMux) {
	livePath := s.PathLive
	if livePath == "" {
		livePath = "/healthz"
	}
	readyPath := s.PathReady
	if readyPath == "" {
		readyPath = "/readyz"
	}

	mux.HandleFunc("GET "+livePath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET "+readyPath, func(w http.ResponseWriter, r *http.Request) {
		if s.ReadyCheck != nil {
			if err := s.ReadyCheck(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

// authorize gates one request. In static mode write actions always require a
// bearer token; read actions do too unless PublicRead leaves them open.
func (s *Service) authorize(r *http.Request, action string) (authz.Principal, error) {
	if s.AuthMode != AuthModeStatic {
		return authz.Principal{}, nil
	}
	if action == authz.ActionRead && s.PublicRead {
		return authz.Principal{}, nil
	}
	if s.Authz == nil {
		return authz.Principal{}, apierr.Unauthorized
	}
	token, ok := bearerToken(r)
	if !ok {
		return authz.Principal{}, apierr.Unauthorized
	}
	principal, ok := s.Authz.Authenticate(token)
	if !ok {
		return authz.Principal{}, apierr.Unauthorized
	}
	if !s.Authz.IsAllowed(principal, action) {
		return principal, apierr.Forbidden
	}
	return principal, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func (s *Service) logRequest(logger *slog.Logger, r *http.Request, status int, latency time.Duration, info *requestInfo) {
	logger.Info("request complete",
		"request_id", info.RequestID,
		"remote_addr", r.RemoteAddr,
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", status,
		"latency_ms", latency.Milliseconds(),
		"principal", info.Principal,
		"key", info.Key,
		"error_code", info.ErrorCode,
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(p []byte) (int, error) {
	return s.ResponseWriter.Write(p)
}

func contextWithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, reqID)
}

func RequestIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := contextWithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowAny := false
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			allowAny = true
		}
		allowed[origin] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		_, ok := allowed[origin]
		if origin != "" && (ok || allowAny) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
			w.Header().Set("Access-Control-Max-Age", "3600")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// derived drive components, rebuilt per call from the configured store

func (s *Service) paginator() *drive.Paginator {
	return &drive.Paginator{
		Store:        s.Store,
		Signer:       s.Store,
		DefaultLimit: s.DefaultListLimit,
		MaxLimit:     s.MaxListLimit,
	}
}

func (s *Service) resolver() drive.Resolver {
	return drive.Resolver{Exists: s.Store.Exists}
}

func (s *Service) relocator() drive.Relocator {
	return drive.Relocator{Store: s.Store}
}

func (s *Service) issuer() drive.Issuer {
	return drive.Issuer{
		Signer:        s.Store,
		DefaultExpiry: s.DefaultSignExpiry,
		MaxExpiry:     s.MaxSignExpiry,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode request body: %v", apierr.InvalidRequest, err)
	}
	return nil
}
