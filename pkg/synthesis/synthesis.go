// Package synthesis turns retrieved article context into a grounded natural
// language answer through an LLM, with safe degraded behavior: a fixed
// apology on LLM failure and a templated answer when retrieval found nothing.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/astrabio/astrabio/pkg/llm"
)

// maxContextDocs bounds the number of documents placed in the prompt.
const maxContextDocs = 5

// Apology is returned to the user when synthesis fails. Synthesis failures
// never surface as server errors.
const Apology = "Sorry, I could not generate an answer right now. Please try again."

const systemPrompt = "You are an assistant specializing in scientific articles on space sciences and biomedicine."

const promptTemplate = `Your task is to answer the question below CONCISELY and OBJECTIVELY, based EXCLUSIVELY on the provided documents.

IMPORTANT RULES:
    1. Be direct, without unnecessary introductions
    2. Cite sources mentioned in the documents with author and year (Author, Year)
    3. DO NOT invent information that is not in the documents
    4. If there is not enough information, state clearly: "I did not find enough information in the available articles"
    5. Focus on the main findings and conclusions

Related Documents:
%s

Question:
%s

Answer:`

// Synthesizer generates answers from retrieved context.
type Synthesizer struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Synthesizer.
func New(client llm.Client, timeout time.Duration, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{client: client, timeout: timeout, logger: logger}
}

// Synthesize answers the question from the given context documents. Any LLM
// failure yields the fixed apology string, never an error.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, docs []string) string {
	prompt := BuildPrompt(question, docs)

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	answer, err := s.client.Complete(cctx, systemPrompt, prompt)
	if err != nil {
		s.logger.Error("answer synthesis failed", "error", err)
		return Apology
	}
	return strings.TrimSpace(answer)
}

// BuildPrompt assembles the synthesis prompt from at most five context
// documents, each under a numbered header.
func BuildPrompt(question string, docs []string) string {
	if len(docs) > maxContextDocs {
		docs = docs[:maxContextDocs]
	}

	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		parts = append(parts, fmt.Sprintf("[Document %d]\n%s\n", i+1, doc))
	}

	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n"), question)
}

// NoResultsAnswer is the templated reply when retrieval found nothing
// relevant. It embeds the question so the user sees what was searched.
func NoResultsAnswer(question string) string {
	return fmt.Sprintf(`I did not find relevant scientific articles in the database to answer the question:

%q

Please try rephrasing your question or check whether articles on this topic have been ingested into the system.`, question)
}
