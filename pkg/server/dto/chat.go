// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"errors"
	"strings"
)

// Question-answering request bounds.
const (
	MinQuestionLength = 3
	MinTopK           = 1
	MaxTopK           = 20
	DefaultTopK       = 5
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

// Validate checks field bounds and applies the topK default.
func (r *ChatRequest) Validate() error {
	if len(strings.TrimSpace(r.Question)) < MinQuestionLength {
		return errors.New("question must be at least 3 characters")
	}
	if r.TopK == 0 {
		r.TopK = DefaultTopK
	}
	if r.TopK < MinTopK || r.TopK > MaxTopK {
		return errors.New("top_k must be between 1 and 20")
	}
	return nil
}

// ErrorResponse is the uniform error body. Message never carries internal
// details for server-side failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
