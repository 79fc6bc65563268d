package http

import (
	stdhttp "net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"blogforge/app/internal/trends"
	"blogforge/app/internal/writer"
)

const (
	defaultGeneratePerMinute = 5
	defaultTrendsPerMinute   = 20
)

// Options configures the HTTP server wiring.
type Options struct {
	Writer    writer.Service
	Trends    *trends.Provider
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	RateLimit RateLimitSettings
}

// RateLimitSettings sets per-client quotas. Generation is kept low because
// each request spends LLM credits.
type RateLimitSettings struct {
	GeneratePerMinute int
	TrendsPerMinute   int
}

// Server wires the HTTP transport layer via Huma over a standard mux.
type Server struct {
	api             huma.API
	mux             *stdhttp.ServeMux
	writer          writer.Service
	trends          *trends.Provider
	logger          *logrus.Logger
	sentry          *sentry.Hub
	generateLimiter *RateLimiter
	trendsLimiter   *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Writer == nil {
		return nil, eris.New("writer service is required")
	}
	if opts.Trends == nil {
		return nil, eris.New("trends provider is required")
	}

	generatePerMinute := opts.RateLimit.GeneratePerMinute
	if generatePerMinute <= 0 {
		generatePerMinute = defaultGeneratePerMinute
	}
	trendsPerMinute := opts.RateLimit.TrendsPerMinute
	if trendsPerMinute <= 0 {
		trendsPerMinute = defaultTrendsPerMinute
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("티스토리 글 자동 생성", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:             api,
		mux:             mux,
		writer:          opts.Writer,
		trends:          opts.Trends,
		logger:          opts.Logger,
		sentry:          opts.SentryHub,
		generateLimiter: NewRateLimiter(generatePerMinute),
		trendsLimiter:   NewRateLimiter(trendsPerMinute),
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerRegionsRoute()
	s.registerTrendsRoute()
	s.registerGenerateRoutes()
	s.registerGenerateFromURLRoutes()
	s.registerHealthRoute()
	s.registerStaticRoutes()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
