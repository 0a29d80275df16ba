// Package server exposes the chat router over HTTP.
package server

import (
	"context"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"beautybot/internal/router"
)

//go:embed templates/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

// Chatter is the part of the router the HTTP layer needs.
type Chatter interface {
	Handle(ctx context.Context, req router.Request) (router.Reply, error)
	Reset(sessionID string)
	TakeDirty(sessionID string) bool
}

// defaultSessionTTL is the cookie lifetime when Options.SessionTTL is zero.
const defaultSessionTTL = 48 * time.Hour

type Options struct {
	Addr string
	// RatePerMinute caps /chat requests per client IP. Zero disables limiting.
	RatePerMinute int
	Title         string
	// SessionTTL is the session cookie lifetime, renewed whenever the
	// conversation gets a new turn.
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type Server struct {
	chat       Chatter
	limiter    *ipLimiter
	title      string
	sessionTTL time.Duration
	log        *zap.Logger
	srv        *http.Server
}

func New(chat Chatter, opts Options) *Server {
	s := &Server{
		chat:       chat,
		title:      opts.Title,
		sessionTTL: opts.SessionTTL,
		log:        opts.Logger,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = defaultSessionTTL
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.title == "" {
		s.title = "BeautyBot"
	}
	if opts.RatePerMinute > 0 {
		s.limiter = newIPLimiter(opts.RatePerMinute, time.Minute)
	}
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.homeHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.Handle("/chat", s.rateLimited(http.HandlerFunc(s.chatHandler))).Methods(http.MethodPost)
	r.HandleFunc("/reset", s.resetHandler).Methods(http.MethodPost)

	var handler http.Handler = r
	handler = &logHandler{log: s.log, next: handler}
	handler = ensureSessionID(s.sessionTTL, handler)
	return handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http shutdown")
	}
	s.log.Info("http server stopped")
	return nil
}
