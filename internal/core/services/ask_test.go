package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens-cli/internal/citations"
	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

func indexedService(t *testing.T, opts ...Option) *PageService {
	t.Helper()
	svc := newTestService(&stubFetcher{body: testPage}, opts...)
	_, err := svc.IndexPage(context.Background(), "https://example.com/doc")
	require.NoError(t, err)
	return svc
}

func TestAsk_WithoutLLMReturnsResultsOnly(t *testing.T) {
	svc := indexedService(t)

	answer, err := svc.Ask(context.Background(), "how are embeddings cached?")

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.NotEmpty(t, answer.Results)
}

func TestAsk_GeneratesAnswerWithCitations(t *testing.T) {
	llm := &stubLLM{answer: "Snapshots keep generated embeddings cached on disk."}
	svc := indexedService(t,
		WithLLM(llm),
		WithCitationMapper(citations.New(nil)),
	)

	answer, err := svc.Ask(context.Background(), "how are embeddings cached?")

	require.NoError(t, err)
	assert.Equal(t, "Snapshots keep generated embeddings cached on disk.", answer.Text)
	require.NotEmpty(t, answer.Citations)
	assert.NotEmpty(t, answer.Citations[0].SourceIndices)
	assert.NotEmpty(t, answer.Results)
}

func TestAsk_LLMFailureDegradesToResults(t *testing.T) {
	llm := &stubLLM{err: domain.ErrLLMUnavailable}
	svc := indexedService(t, WithLLM(llm))

	answer, err := svc.Ask(context.Background(), "how are embeddings cached?")

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.NotEmpty(t, answer.Results)
}

func TestAsk_NoIndexedPage(t *testing.T) {
	svc := newTestService(&stubFetcher{body: testPage})

	answer, err := svc.Ask(context.Background(), "anything at all?")

	require.NoError(t, err)
	assert.Empty(t, answer.Text)
	assert.Empty(t, answer.Results)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	svc := indexedService(t)

	_, err := svc.Ask(context.Background(), " ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildAskPrompt(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{RawText: "First source text.", HeadingPath: []string{"Intro"}}},
		{Chunk: domain.Chunk{RawText: "Second source text."}},
	}

	prompt := buildAskPrompt("What is this?", results)

	assert.Contains(t, prompt, "[1] (Intro)")
	assert.Contains(t, prompt, "First source text.")
	assert.Contains(t, prompt, "[2]")
	assert.Contains(t, prompt, "Question: What is this?")
}
