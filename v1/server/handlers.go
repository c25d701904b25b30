package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Aleph-Alpha/vectorindexer/v1/indexer"
	"github.com/Aleph-Alpha/vectorindexer/v1/vectordb"
)

// bind decodes the request body. An empty body is an empty request.
func (s *Server) bind(c *gin.Context) (*Request, bool) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(c, http.StatusRequestEntityTooLarge, err)
		} else {
			s.fail(c, http.StatusBadRequest, err)
		}
		return nil, false
	}
	if err := req.validate(); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return nil, false
	}
	return &req, true
}

// handleDocs serves the endpoints that take documents and answer with them.
func (s *Server) handleDocs(op func(context.Context, []*vectordb.Document) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := s.bind(c)
		if !ok {
			return
		}
		if err := op(c.Request.Context(), req.Data); err != nil {
			s.fail(c, statusFor(err), err)
			return
		}
		c.JSON(http.StatusOK, Response{Data: nonNil(req.Data)})
	}
}

func (s *Server) search(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	if err := s.svc.Search(c.Request.Context(), req.Data, req.Parameters); err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, Response{Data: nonNil(req.Data)})
}

func (s *Server) delete(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	ids, err := req.ids()
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if err := s.svc.Delete(c.Request.Context(), ids); err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, Response{Data: nonNil(req.Data)})
}

func (s *Server) filter(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	expr, err := req.predicate()
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	docs, err := s.svc.Filter(c.Request.Context(), expr)
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, Response{Data: nonNil(docs)})
}

func (s *Server) clear(c *gin.Context) {
	if err := s.svc.Clear(c.Request.Context()); err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, Response{Data: []*vectordb.Document{}})
}

func (s *Server) health(c *gin.Context) {
	n, err := s.svc.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Documents: n})
}

func nonNil(docs []*vectordb.Document) []*vectordb.Document {
	if docs == nil {
		return []*vectordb.Document{}
	}
	return docs
}

var _ Service = (*indexer.Indexer)(nil)
