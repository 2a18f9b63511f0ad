// Package server exposes a written index document as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/temirov/sdmap/internal/catalog"
	"github.com/temirov/sdmap/internal/utils"
)

const (
	shutdownTimeout = 5 * time.Second

	routeSections    = "/api/sections"
	routeFiles       = "/api/sections/:section/files"
	routeSubsections = "/api/sections/:section/subsections"
	routeRandom      = "/api/sections/:section/random"

	logMessageRequest  = "request served"
	logMessageListen   = "catalog API listening"
	logMessageShutdown = "catalog API shutting down"
	logFieldMethod     = "method"
	logFieldPath       = "path"
	logFieldStatus     = "status"
	logFieldLatency    = "latency"
	logFieldAddress    = "address"
	logFieldDocument   = "document"
)

var errMissingDocument = errors.New("document path is required")

// Options configures a Server.
type Options struct {
	Address        string
	DocumentPath   string
	CacheSize      int
	AllowedOrigins []string
	Logger         *zap.Logger
	// Chooser picks random subsections; nil uses math/rand/v2.
	Chooser catalog.Chooser
}

// Server answers catalog queries over HTTP.
type Server struct {
	options Options
	cache   *documentCache
	router  *gin.Engine
	logger  *zap.Logger
}

type sectionInput struct {
	Section string `uri:"section" binding:"required"`
}

type filesInput struct {
	Subsection string `form:"subsection"`
}

// New validates options and builds the router.
func New(options Options) (*Server, error) {
	if options.DocumentPath == "" {
		return nil, errMissingDocument
	}
	if options.CacheSize <= 0 {
		options.CacheSize = 1
	}
	cache, err := newDocumentCache(options.CacheSize)
	if err != nil {
		return nil, err
	}
	server := &Server{options: options, cache: cache, logger: utils.LoggerOrNop(options.Logger)}
	server.router = server.newRouter()
	return server, nil
}

// Handler returns the HTTP handler serving the API.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Run serves on Options.Address until ctx is done, then shuts down gracefully.
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{Addr: server.options.Address, Handler: server.router}
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- httpServer.ListenAndServe()
	}()
	server.logger.Info(logMessageListen,
		zap.String(logFieldAddress, server.options.Address),
		zap.String(logFieldDocument, server.options.DocumentPath),
	)

	select {
	case err := <-serveErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	server.logger.Info(logMessageShutdown)
	shutdownContext, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownContext); err != nil {
		return err
	}
	if err := <-serveErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (server *Server) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(newCorsMiddleware(server.options.AllowedOrigins))
	router.Use(server.requestLogger())

	router.GET(routeSections, Wrap(server.listSections))
	router.GET(routeFiles, Wrap(server.listFiles))
	router.GET(routeSubsections, Wrap(server.listSubsections))
	router.GET(routeRandom, Wrap(server.randomSubsection))
	return router
}

func newCorsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}

func (server *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		server.logger.Debug(logMessageRequest,
			zap.String(logFieldMethod, c.Request.Method),
			zap.String(logFieldPath, c.Request.URL.Path),
			zap.Int(logFieldStatus, c.Writer.Status()),
			zap.Duration(logFieldLatency, time.Since(start)),
		)
	}
}

func (server *Server) listSections(c *gin.Context) (interface{}, error) {
	loaded, err := server.cache.load(server.options.DocumentPath)
	if err != nil {
		return nil, err
	}
	sections := loaded.Sections()
	if sections == nil {
		sections = []string{}
	}
	return sections, nil
}

func (server *Server) listFiles(c *gin.Context) (interface{}, error) {
	var section sectionInput
	if err := c.ShouldBindUri(&section); err != nil {
		return nil, err
	}
	var input filesInput
	if err := c.ShouldBindQuery(&input); err != nil {
		return nil, err
	}
	loaded, err := server.cache.load(server.options.DocumentPath)
	if err != nil {
		return nil, err
	}
	return loaded.Files(section.Section, input.Subsection)
}

func (server *Server) listSubsections(c *gin.Context) (interface{}, error) {
	var section sectionInput
	if err := c.ShouldBindUri(&section); err != nil {
		return nil, err
	}
	loaded, err := server.cache.load(server.options.DocumentPath)
	if err != nil {
		return nil, err
	}
	subsections, err := loaded.Subsections(section.Section)
	if err != nil {
		return nil, err
	}
	if subsections == nil {
		subsections = []string{}
	}
	return subsections, nil
}

func (server *Server) randomSubsection(c *gin.Context) (interface{}, error) {
	var section sectionInput
	if err := c.ShouldBindUri(&section); err != nil {
		return nil, err
	}
	loaded, err := server.cache.load(server.options.DocumentPath)
	if err != nil {
		return nil, err
	}
	return loaded.Random(section.Section, server.options.Chooser)
}
