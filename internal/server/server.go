package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/view"
)

//go:embed static/panel.js
var staticFS embed.FS

// DefaultShutdownTimeout bounds Shutdown when the caller's context has none.
const DefaultShutdownTimeout = 10 * time.Second

// Panel is the controller the server renders and drives.
// *panel.Controller implements it.
type Panel interface {
	EnsureLoaded(ctx context.Context) error
	State() view.PageState
	Pending() []string
	Subscribe() (<-chan view.PageState, func())
	Trigger(ctx context.Context, name string) error
	Remove(ctx context.Context, key string) error
	Add(ctx context.Context, ssid, password string) error
}

// Config holds the server configuration
type Config struct {
	Listen          string
	ShutdownTimeout time.Duration
}

// Server serves one panel over HTTP and websocket.
type Server struct {
	config  *Config
	panel   Panel
	handler http.Handler

	httpServer *http.Server
	listener   net.Listener

	wg      sync.WaitGroup
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closing bool
}

// New creates a server for p. Nothing listens until Start or Serve.
func New(config *Config, p Panel) (*Server, error) {
	if config == nil || config.Listen == "" {
		return nil, errors.New("listen address is required")
	}
	if p == nil {
		return nil, errors.New("panel is required")
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}

	s := &Server{
		config:  config,
		panel:   p,
		clients: make(map[*wsClient]struct{}),
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the bound address once listening, or the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Listen
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigChan:
			logging.Info("Shutdown signal received, stopping server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.Serve(ctx)
}

// Serve listens on the configured address and serves until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.listener = ln
	s.httpServer = srv
	s.mu.Unlock()

	logging.Info("Panel server listening", zap.String("addr", ln.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ln)
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests, closes websocket clients and waits for
// their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down panel server...")

	s.mu.Lock()
	s.closing = true
	srv := s.httpServer
	for c := range s.clients {
		logging.Info("Closing websocket client", zap.String("remote_addr", c.remoteAddr))
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	var err error
	if srv != nil {
		if err = srv.Shutdown(ctx); err != nil {
			logging.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of websocket clients
func (s *Server) GetActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) track(c *wsClient) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c *wsClient) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	s.wg.Done()
}

func handlePanelScript(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/panel.js")
	if err != nil {
		http.Error(w, "404 not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
