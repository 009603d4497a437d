package router

import (
	"context"
	"net/http"
	"time"

	"CrudAPI/internal/config"
	"CrudAPI/internal/handler"
	"CrudAPI/internal/locale"
	"CrudAPI/internal/logger"
	"CrudAPI/internal/model"
	"CrudAPI/internal/response"
	"CrudAPI/internal/store"
	"CrudAPI/internal/validation"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Options wire the HTTP surface. Metrics and Health are optional.
type Options struct {
	Registry *model.Registry
	Store    store.Store
	Engine   validation.Engine
	Deps     handler.Deps
	CORS     config.CORSConfig
	Metrics  http.Handler
	Health   func(ctx context.Context) error
}

// New mounts one dispatcher per registered model under /<model>/.
func New(opts Options) http.Handler {
	mux := http.NewServeMux()
	for _, name := range opts.Registry.Names() {
		m, _ := opts.Registry.Get(name)
		d := handler.NewDispatcher(handler.NewResource(m, opts.Store, opts.Engine), opts.Deps)
		prefix := "/" + name
		mux.Handle(prefix+"/", http.StripPrefix(prefix, d))
		logger.Debug("route_mounted", map[string]any{"model": name, "prefix": prefix + "/"})
	}

	mux.HandleFunc("/health", healthHandler(opts.Health))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}

	h := withCORS(newCORSPolicy(opts.CORS), mux.ServeHTTP)
	return withRequestID(withLogging(withRecovery(h)))
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				env := response.Fail(http.StatusServiceUnavailable, locale.ServerDBConnError, locale.Keys{})
				env.Error = err.Error()
				response.Write(w, env)
				return
			}
		}
		response.Write(w, response.OK("", locale.Keys{}, nil).With("status", "ok"))
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

func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next(w, r)
	}
}

// withRecovery turns a panic into the 500 envelope.
func withRecovery(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic", map[string]any{
					"path":       r.URL.Path,
					"panic":      rec,
					"request_id": r.Header.Get(requestIDHeader),
				})
				response.Write(w, response.Fail(http.StatusInternalServerError, locale.ServerInternalError, locale.Keys{}))
			}
		}()
		next(w, r)
	}
}

func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		level := "info"
		if sw.status >= 500 {
			level = "error"
		} else if sw.status >= 400 {
			level = "warn"
		}
		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(started).Milliseconds(),
			"request_id":  r.Header.Get(requestIDHeader),
		}
		switch level {
		case "error":
			logger.Error("response", fields)
		case "warn":
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	}
}
