// Package server exposes the chat service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shaharia-lab/recipechat"
	"github.com/shaharia-lab/recipechat/observability"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const maxRequestBodyBytes = 1 << 20

// ChatService is the part of recipechat.ChatService used by the HTTP layer.
type ChatService interface {
	Chat(ctx context.Context, req recipechat.ChatRequest) (recipechat.ChatResult, error)
	History(ctx context.Context, userID string) ([]recipechat.LLMMessage, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr         string
	StaticDir    string
	CookieName   string
	CookieMaxAge time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// RateLimit is the number of chat turns per second allowed across all clients.
	// Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server serves the chat API and the static frontend.
type Server struct {
	opts      Options
	service   ChatService
	logger    observability.Logger
	limiter   *rate.Limiter
	validator *requestValidator
}

// New creates a Server. A nil logger discards all output.
func New(service ChatService, opts Options, logger observability.Logger) (*Server, error) {
	if service == nil {
		return nil, errors.New("chat service cannot be nil")
	}
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	if opts.CookieName == "" {
		opts.CookieName = "user_id"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	validator, err := newRequestValidator(chatRequestSchema)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		service:   service,
		logger:    logger,
		validator: validator,
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)
	}

	return s, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /history/{user_id}", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir))))

	return s.logRequests(mux)
}

// Run listens on opts.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.WithFields(map[string]interface{}{"addr": ln.Addr().String()}).Info("HTTP server listening")
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
