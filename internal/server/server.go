// Package server exposes the resolver over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/resolver"
)

// shutdownTimeout bounds graceful shutdown once the serve context ends.
const shutdownTimeout = 10 * time.Second

// Server wires the HTTP surface to a Resolver.
type Server struct {
	engine *gin.Engine
	res    *resolver.Resolver
	log    *logger.Logger
}

// New builds the router. Every /query response uses HTTP 200; failure
// is signaled only through the body's success flag, so clients have a
// single decode path.
func New(res *resolver.Resolver, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		res:    res,
		log:    log,
	}
	engine.GET("/query", s.handleQuery)
	engine.GET("/health", s.handleHealth)
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// handleQuery treats every query parameter as one seed (field, value)
// pair and resolves from there. Repeated parameters keep the first value.
func (s *Server) handleQuery(c *gin.Context) {
	seeds := make(map[string]string)
	for field, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			seeds[field] = values[0]
		}
	}

	start := time.Now()
	result := s.res.Resolve(c.Request.Context(), seeds)
	s.log.Infow("query handled",
		"seeds", len(seeds), "success", result.Success, "elapsed", time.Since(start))

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Infow("starting HTTP server", "listen", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
