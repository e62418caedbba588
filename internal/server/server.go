// Package server exposes the planner service as a JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/masahif/seoplanner/internal/planner"
)

// Config controls the HTTP listener
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server routes API requests to a planner service
type Server struct {
	svc     *planner.Service
	engine  *gin.Engine
	metrics *Metrics
	origins []string
	now     func() time.Time
}

// New builds the router. Discovery requests can take a minute, so callers
// should size WriteTimeout accordingly.
func New(svc *planner.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		engine:  gin.New(),
		metrics: NewMetrics(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine.Use(gin.Recovery(), requestLogger(), s.metrics.Middleware())
	if len(s.origins) > 0 {
		s.engine.Use(corsMiddleware(s.origins))
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server's collectors
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthcheck", s.healthCheck)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api")
	{
		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.createProject)
		api.GET("/projects/:id", s.getProject)
		api.PATCH("/projects/:id", s.updateProject)
		api.DELETE("/projects/:id", s.deleteProject)
		api.POST("/projects/:id/duplicate", s.duplicateProject)
		api.GET("/projects/:id/stats", s.projectStats)
		api.GET("/projects/:id/export", s.exportProject)
		api.GET("/projects/:id/maps", s.listTopicalMaps)
		api.POST("/projects/:id/maps", s.createTopicalMap)
		api.GET("/projects/:id/briefs", s.listBriefs)
		api.POST("/projects/:id/briefs", s.createBrief)
		api.GET("/projects/:id/publications", s.listPublications)

		api.GET("/maps/:id", s.getTopicalMap)
		api.DELETE("/maps/:id", s.deleteTopicalMap)
		api.GET("/maps/:id/export", s.exportTopicalMap)
		api.GET("/maps/:id/entities", s.listEntities)
		api.POST("/maps/:id/entities", s.addEntity)
		api.GET("/maps/:id/attributes", s.listAttributes)
		api.POST("/maps/:id/attributes", s.addAttribute)
		api.POST("/maps/:id/entity-attributes", s.linkEntityAttribute)

		api.PATCH("/entities/:id/scores", s.updateEntityScores)
		api.DELETE("/entities/:id", s.deleteEntity)
		api.DELETE("/attributes/:id", s.deleteAttribute)

		api.GET("/briefs/:id", s.getBrief)
		api.PATCH("/briefs/:id", s.updateBrief)
		api.DELETE("/briefs/:id", s.deleteBrief)
		api.GET("/briefs/:id/export", s.exportBrief)
		api.POST("/briefs/:id/advance", s.advanceBrief)
		api.POST("/briefs/:id/revert", s.revertBrief)
		api.POST("/briefs/:id/transition", s.transitionBrief)
		api.GET("/briefs/:id/sections", s.listSections)
		api.POST("/briefs/:id/sections", s.addSection)
		api.GET("/briefs/:id/links", s.listLinks)
		api.POST("/briefs/:id/publication", s.createPublication)

		api.POST("/links", s.createLink)
		api.DELETE("/links/:id", s.deleteLink)

		api.GET("/publications/:id", s.getPublication)
		api.GET("/publications/:id/queries", s.listQueryData)
		api.POST("/publications/:id/queries", s.addQueryData)

		api.POST("/discovery", s.discover)
		api.POST("/discovery/accept", s.acceptFramework)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
