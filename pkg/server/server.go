// Package server is the gin HTTP layer over the answering engine and the
// knowledge graph.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astrabio/astrabio"
	"github.com/astrabio/astrabio/pkg/config"
	"github.com/astrabio/astrabio/pkg/graph"
	"github.com/astrabio/astrabio/pkg/server/handlers"
)

// Server is the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	engine   astrabio.Engine
	graphs   *graph.Engine
	backends map[string]handlers.Pinger
	logger   *slog.Logger
	server   *http.Server
}

// New creates a server instance. backends are the named stores reported by
// the health endpoint.
func New(cfg *config.Config, engine astrabio.Engine, graphs *graph.Engine, backends map[string]handlers.Pinger, logger *slog.Logger) *Server {
	return &Server{
		config:   cfg,
		engine:   engine,
		graphs:   graphs,
		backends: backends,
		logger:   logger,
	}
}

// Setup builds the router and the underlying HTTP server.
func (s *Server) Setup() {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.backends)
	chatHandler := handlers.NewChatHandler(s.engine, s.logger)
	graphHandler := handlers.NewGraphHandler(s.graphs)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/live", healthHandler.Live)

	s.router.POST("/chat", chatHandler.Chat)

	api := s.router.Group("/api")
	{
		api.GET("/graph", graphHandler.View)
		api.GET("/graph/stats", graphHandler.Stats)
		api.GET("/graph/node/:id", graphHandler.Node)
		api.GET("/graph/neighbors/:id", graphHandler.Neighbors)
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds permissive CORS headers for the exploration UI.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
