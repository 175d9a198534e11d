package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astrabio/astrabio/pkg/graph"
	"github.com/astrabio/astrabio/pkg/server/dto"
)

// GraphHandler serves knowledge graph queries against the current snapshot.
type GraphHandler struct {
	engine *graph.Engine
}

// NewGraphHandler creates a GraphHandler.
func NewGraphHandler(engine *graph.Engine) *GraphHandler {
	return &GraphHandler{engine: engine}
}

// Stats handles GET /api/graph/stats.
func (h *GraphHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Graph().GetStats())
}

// View handles GET /api/graph.
func (h *GraphHandler) View(c *gin.Context) {
	q, err := dto.ParseGraphViewQuery(
		c.Query("nodeType"),
		c.Query("experimentId"),
		c.Query("minDegree"),
		c.Query("limit"),
	)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	view := h.engine.Graph().GetFilteredView(graph.ViewFilter{
		NodeType:     q.NodeType,
		ExperimentID: q.ExperimentID,
		MinDegree:    q.MinDegree,
		Limit:        q.Limit,
	})
	c.JSON(http.StatusOK, view)
}

// Node handles GET /api/graph/node/:id.
func (h *GraphHandler) Node(c *gin.Context) {
	details, err := h.engine.Graph().GetNodeDetails(c.Param("id"))
	if err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// Neighbors handles GET /api/graph/neighbors/:id.
func (h *GraphHandler) Neighbors(c *gin.Context) {
	depth, err := dto.ParseDepth(c.Query("max_depth"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	view, err := h.engine.Graph().GetNeighborSubgraph(c.Param("id"), depth)
	if err != nil {
		if errors.Is(err, graph.ErrVertexNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}
	c.JSON(http.StatusOK, view)
}
