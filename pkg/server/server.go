// Package server builds the chi router shared by the authorization and
// gateway surfaces.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/d4l-data4life/go-svc/pkg/logging"
)

// Options configures the router middleware stack
type Options struct {
	CORS                *cors.Cors
	MaxParallelRequests int
	RequestTimeout      time.Duration
}

// Server wraps the configured chi router
type Server struct {
	mux *chi.Mux
}

// New builds a router with the shared middleware stack. RealIP runs before
// the request logger so log lines carry the caller address; the throttle
// bounds in-flight requests because every gateway call holds a downstream
// HTTP connection.
func New(opts Options) *Server {
	mux := chi.NewRouter()
	mux.Use(
		render.SetContentType(render.ContentTypeJSON),
		opts.CORS.Handler,
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(),
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Compress(5),
		middleware.Timeout(opts.RequestTimeout),
		middleware.Throttle(opts.MaxParallelRequests),
	)
	return &Server{mux: mux}
}

// Mux returns the chi router
func (s *Server) Mux() *chi.Mux {
	return s.mux
}

func requestLogger() func(http.Handler) http.Handler {
	return logging.Logger().HTTPMiddleware()
}
