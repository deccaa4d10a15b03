// Package server exposes a Player to producers over WebSocket.
//
// Endpoints:
//
//	GET <Path>    WebSocket; binary messages are PCM16 chunks, text messages are JSON control messages
//	GET /healthz  JSON health summary
//	GET /stats    JSON playback.Stats
//	GET /metrics  Prometheus scrape, when a gatherer is configured
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/realtime-ai/streamplayout/pkg/playback"
)

// Player is the part of playback.Player the server drives.
type Player interface {
	SubmitContext(ctx context.Context, data []byte) error
	Stop()
	Stats() playback.Stats
}

var _ Player = (*playback.Player)(nil)

// Server accepts producer connections and feeds their chunks to a Player.
type Server struct {
	config *Config
	player Player
	logger *zap.Logger

	router     chi.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	conns   map[string]*producerConn
	connsMu sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// New creates a server. gatherer may be nil to disable /metrics.
func New(config *Config, player Player, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config: config,
		player: player,
		logger: logger,
		router: chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns: make(map[string]*producerConn),
	}

	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	s.router.With(s.requireToken).Get(config.Path, s.handleWebSocket)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	if gatherer != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

// Handler returns the HTTP handler serving every endpoint.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on config.Addr in the background. It returns an error if the
// listener fails within the first 100ms.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("ingest server starting",
		zap.String("addr", s.config.Addr),
		zap.String("path", s.config.Path),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop closes every producer connection and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.connsMu.Lock()
	s.closing = true
	for _, c := range s.conns {
		c.close()
	}
	s.connsMu.Unlock()
	s.wg.Wait()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requireToken rejects requests without the configured bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token != s.config.AuthToken {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newProducerConn(uuid.NewString(), ws, s)

	s.connsMu.Lock()
	if s.closing {
		s.connsMu.Unlock()
		_ = ws.Close()
		return
	}
	s.conns[c.id] = c
	s.wg.Add(1)
	s.connsMu.Unlock()
	defer s.wg.Done()

	c.serve()

	s.connsMu.Lock()
	delete(s.conns, c.id)
	s.connsMu.Unlock()
}
