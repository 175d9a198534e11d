// Package handlers implements the HTTP endpoint handlers.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astrabio/astrabio"
	"github.com/astrabio/astrabio/pkg/server/dto"
)

// ChatHandler serves the question-answering endpoint.
type ChatHandler struct {
	engine astrabio.Engine
	logger *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(engine astrabio.Engine, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{engine: engine, logger: logger}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	answer, err := h.engine.Answer(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		h.logger.Error("answer pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal_error"})
		return
	}

	c.JSON(http.StatusOK, answer)
}
