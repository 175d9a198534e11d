package synthesis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	answer     string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeClient) Complete(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.answer, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildPromptNumbersDocuments(t *testing.T) {
	prompt := BuildPrompt("What causes bone loss?", []string{"doc one", "doc two"})

	assert.Contains(t, prompt, "[Document 1]\ndoc one")
	assert.Contains(t, prompt, "[Document 2]\ndoc two")
	assert.Contains(t, prompt, "What causes bone loss?")
}

func TestBuildPromptCapsAtFiveDocuments(t *testing.T) {
	docs := []string{"a", "b", "c", "d", "e", "f", "g"}
	prompt := BuildPrompt("q", docs)

	assert.Contains(t, prompt, "[Document 5]")
	assert.NotContains(t, prompt, "[Document 6]")
}

func TestSynthesizeTrimsAnswer(t *testing.T) {
	client := &fakeClient{answer: "  Microgravity unloads bone.  \n"}
	s := New(client, time.Second, testLogger())

	answer := s.Synthesize(context.Background(), "why?", []string{"ctx"})
	assert.Equal(t, "Microgravity unloads bone.", answer)
	assert.NotEmpty(t, client.lastSystem)
	assert.Contains(t, client.lastUser, "ctx")
}

func TestSynthesizeApologizesOnFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limit")}
	s := New(client, time.Second, testLogger())

	answer := s.Synthesize(context.Background(), "why?", []string{"ctx"})
	assert.Equal(t, Apology, answer)
}

func TestNoResultsAnswerEmbedsQuestion(t *testing.T) {
	answer := NoResultsAnswer("plants in orbit")
	require.True(t, strings.Contains(answer, `"plants in orbit"`))
	assert.Contains(t, answer, "did not find relevant scientific articles")
}
