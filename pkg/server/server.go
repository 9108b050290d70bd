// Package server exposes the generator over HTTP: JSON endpoints for
// validation and generation, a file download, the SVG preview and a
// websocket that regenerates the document on every profile edit.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Kanrog/kanrog.github.io/pkg/log"
	"github.com/Kanrog/kanrog.github.io/pkg/metrics"
)

// Config holds the listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Optional basic auth for /metrics.
	MetricsUser     string
	MetricsPassword string
}

// DefaultConfig returns the settings used by `macrogen serve`.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server is the generator HTTP API.
type Server struct {
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	metrics    *metrics.GeneratorMetrics
	logger     *log.Logger
	upgrader   websocket.Upgrader
	startTime  time.Time

	sessionsMu sync.Mutex
	sessions   map[*liveSession]struct{}
}

// New builds the server and its routes.
func New(cfg Config, gm *metrics.GeneratorMetrics) *Server {
	if gm == nil {
		gm = metrics.GlobalMetrics()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		engine:    gin.New(),
		metrics:   gm,
		logger:    log.GetLogger("server"),
		startTime: time.Now(),
		sessions:  make(map[*liveSession]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(RequestIDMiddleware())
	s.engine.Use(LoggerMiddleware(s.logger, gm))
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/health", s.health)
		v1.GET("/materials", s.materials)
		v1.POST("/validate", s.validate)
		v1.POST("/generate", s.generate)
		v1.POST("/download", s.download)
		v1.POST("/preview", s.preview)
		v1.GET("/live", s.live)
	}

	s.engine.GET("/metrics", gin.WrapH(metrics.NewHandler(s.metrics, metrics.HandlerConfig{
		Username: s.cfg.MetricsUser,
		Password: s.cfg.MetricsPassword,
	})))

	s.engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/api/v1/health")
	})
}

// Engine returns the gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start listens on the configured address and blocks until the server is
// shut down.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.cfg.Addr).Info("listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown closes live sessions and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessionsMu.Lock()
	for sess := range s.sessions {
		sess.Close()
	}
	s.sessionsMu.Unlock()
	return s.httpServer.Shutdown(ctx)
}
