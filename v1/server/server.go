package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/logger"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// Server exposes a Service over HTTP.
type Server struct {
	// HTTP is the underlying server; its Handler is the gin engine.
	HTTP *http.Server

	engine   *gin.Engine
	svc      Service
	log      *logger.Logger
	recorder RequestRecorder
	cfg      Config
}

// New builds the gin engine and registers the routes. recorder may be nil.
//
// Routes:
//
//	POST /index           data: documents to store
//	POST /search          data: query documents, parameters: search parameters
//	POST /delete          parameters.ids, or the ids of data
//	POST /update          data: replacement documents
//	POST /fill_embedding  data: documents whose vectors are looked up
//	POST /filter          parameters.filter: predicate expression
//	POST /clear
//	GET  /healthz
func New(cfg Config, svc Service, log *logger.Logger, recorder RequestRecorder) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	s := &Server{
		engine:   engine,
		svc:      svc,
		log:      log,
		recorder: recorder,
		cfg:      cfg,
	}

	engine.Use(gin.Recovery(), s.observe())

	engine.GET("/healthz", s.health)
	engine.POST("/"+indexer.OpIndex, s.handleDocs(svc.Index))
	engine.POST("/"+indexer.OpSearch, s.search)
	engine.POST("/"+indexer.OpDelete, s.delete)
	engine.POST("/"+indexer.OpUpdate, s.handleDocs(svc.Update))
	engine.POST("/"+indexer.OpFillEmbedding, s.handleDocs(svc.FillEmbedding))
	engine.POST("/"+indexer.OpFilter, s.filter)
	engine.POST("/"+indexer.OpClear, s.clear)

	s.HTTP = &http.Server{
		Addr:         cfg.Address,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// observe records request metrics and logs failed requests.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if s.cfg.MaxBodyBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
		}

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()
		if s.recorder != nil {
			s.recorder.IncrementRequests(endpoint, status)
			s.recorder.RecordRequestDuration(start, endpoint)
		}
		if status >= http.StatusBadRequest {
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last.Err
			}
			s.log.WarnWithContext(c.Request.Context(), "request failed", err, map[string]interface{}{
				"endpoint": endpoint,
				"status":   status,
				"duration": time.Since(start).String(),
			})
		}
	}
}

// statusFor maps an indexer error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, indexer.ErrInvalidParameter),
		errors.Is(err, vectordb.ErrFilterSyntax),
		errors.Is(err, vectordb.ErrDimensionMismatch):
		return http.StatusBadRequest
	case errors.Is(err, vectordb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vectordb.ErrConnection),
		errors.Is(err, vectordb.ErrClosed):
		return http.StatusServiceUnavailable
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}
