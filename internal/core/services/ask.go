package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driving"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// askContextLimit bounds how many chunks are placed in the generation prompt.
const askContextLimit = 5

// Ask answers a question over the indexed page. Retrieval always runs; the
// generated answer and its citations are best-effort extras on top of the
// ranked results, so a missing or failing LLM yields results without text
// rather than an error.
func (s *PageService) Ask(ctx context.Context, question string) (*driving.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	results, err := s.Search(ctx, question, domain.SearchOptions{
		Limit:         askContextLimit,
		Unthresholded: true,
		Hybrid:        true,
	})
	if err != nil {
		return nil, err
	}

	answer := &driving.Answer{Results: results}
	if len(results) == 0 {
		logger.Info("No relevant chunks for question")
		return answer, nil
	}
	if s.llm == nil {
		logger.Debug("No LLM configured, returning retrieval results only")
		return answer, nil
	}

	prompt := buildAskPrompt(question, results)
	text, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{Temperature: 0.2})
	if err != nil {
		logger.Warn("Answer generation failed, returning retrieval results only: %v", err)
		return answer, nil
	}
	answer.Text = strings.TrimSpace(text)

	if s.mapper != nil && answer.Text != "" {
		citations, err := s.mapper.Map(ctx, answer.Text, results)
		if err != nil {
			logger.Warn("Citation mapping failed: %v", err)
		} else {
			answer.Citations = citations
		}
	}
	return answer, nil
}

// buildAskPrompt assembles the grounded-answer prompt: the ranked chunks as
// numbered context blocks, then the question.
func buildAskPrompt(question string, results []domain.SearchResult) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the context below. ")
	sb.WriteString("If the context does not contain the answer, say so.\n\n")

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("[%d]", i+1))
		if len(r.Chunk.HeadingPath) > 0 {
			sb.WriteString(" (" + strings.Join(r.Chunk.HeadingPath, " > ") + ")")
		}
		sb.WriteString("\n")
		sb.WriteString(r.Chunk.RawText)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
