package server

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/config"
	"github.com/jmbarbier/blueprint/internal/handlers"
	"github.com/jmbarbier/blueprint/internal/middleware"
)

// Server is the configured application: a gin engine carrying the global
// middleware chain with blueprints mounted under their prefixes.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *gin.Engine
}

// New is the application factory.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	engine := gin.New()

	engine.Use(middleware.Logger())
	engine.Use(middleware.Recovery())
	engine.Use(middleware.CORS())
	engine.Use(middleware.SecurityHeaders())

	engine.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, http.StatusNotFound, "route not found")
	})

	// Root route, an empty page like the template's home
	engine.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return &Server{
		cfg:    cfg,
		logger: logger,
		engine: engine,
	}
}

// Mount registers blueprints under prefix.
func (s *Server) Mount(prefix string, blueprints ...Blueprint) {
	for _, bp := range blueprints {
		bp.Register(s.engine.Group(prefix))
		s.logger.Info("blueprint registered", "name", bp.Name(), "prefix", prefix)
	}
}

// Engine exposes the underlying router for root-level routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Handler returns the http.Handler to serve.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Routes returns the registered route paths, sorted and de-duplicated, for
// the API index endpoint.
func (s *Server) Routes() []string {
	seen := make(map[string]bool)
	var paths []string
	for _, route := range s.engine.Routes() {
		if !seen[route.Path] {
			seen[route.Path] = true
			paths = append(paths, route.Path)
		}
	}
	sort.Strings(paths)
	return paths
}
