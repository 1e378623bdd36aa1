package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which paths it serves.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers and applies middleware.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Server is a short-lived local HTTP server, started for a single interactive flow.
type Server struct {
	http   *http.Server
	ln     net.Listener
	errs   chan error
	logger *log.Logger
}

// Start listens on addr and serves handler in the background.
//
// Use port 0 to pick a free port; [Server.Addr] reports the bound address.
func Start(addr string, handler http.Handler, logger *log.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		http:   &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second},
		ln:     ln,
		errs:   make(chan error, 1),
		logger: logger,
	}

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
	}()

	if logger != nil {
		logger.Debug("server listening", "addr", s.Addr())
	}
	return s, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// URL returns an http URL for path on this server.
func (s *Server) URL(path string) string { return "http://" + s.Addr() + path }

// Errors reports a fatal serve error, if one occurs.
func (s *Server) Errors() <-chan error { return s.errs }

// Shutdown gracefully stops the server, waiting at most five seconds.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn("error shutting down server", "error", err)
		}
		return err
	}
	return nil
}
