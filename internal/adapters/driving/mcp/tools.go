package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// IndexInput is the input schema for the index_page tool.
type IndexInput struct {
	URL string `json:"url" jsonschema:"the URL of the web page to index"`
}

// IndexOutput is the output schema for the index_page tool.
type IndexOutput struct {
	URL      string `json:"url"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
	CacheHit bool   `json:"cache_hit"`
}

// SearchInput is the input schema for the search_page tool.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"the search query"`
	URL       string  `json:"url,omitempty" jsonschema:"page to index before searching; omit to query the current page"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results (default 10)"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum blended score between 0 and 1 (default 0.7)"`
}

// SearchOutput is the output schema for the search_page tool.
type SearchOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput represents a single search result.
type ResultOutput struct {
	ChunkID     string  `json:"chunk_id"`
	HeadingPath string  `json:"heading_path,omitempty"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
	Locator     string  `json:"locator,omitempty"`
}

// AskInput is the input schema for the ask_page tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the page"`
	URL      string `json:"url,omitempty" jsonschema:"page to index before asking; omit to query the current page"`
}

// AskOutput is the output schema for the ask_page tool.
type AskOutput struct {
	Answer    string           `json:"answer,omitempty"`
	Citations []CitationOutput `json:"citations,omitempty"`
	Sources   []ResultOutput   `json:"sources"`
}

// CitationOutput attributes one answer sentence to its sources.
type CitationOutput struct {
	Sentence      string  `json:"sentence"`
	SourceIndices []int   `json:"source_indices"`
	Confidence    float64 `json:"confidence"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_page",
		Description: "Fetch a web page and build a searchable index over its content",
	}, s.handleIndex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_page",
		Description: "Search the indexed page with hybrid keyword and semantic matching",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_page",
		Description: "Answer a question from the indexed page content, with citations",
	}, s.handleAsk)
}

// handleIndex handles the index_page tool invocation.
func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	stats, err := s.ports.Page.IndexPage(ctx, input.URL)
	if err != nil {
		return nil, IndexOutput{}, err
	}
	return nil, IndexOutput{
		URL:      stats.URL,
		Chunks:   stats.Chunks,
		Embedded: stats.Embedded,
		CacheHit: stats.CacheHit,
	}, nil
}

// handleSearch handles the search_page tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.URL != "" {
		if _, err := s.ports.Page.IndexPage(ctx, input.URL); err != nil {
			return nil, SearchOutput{}, err
		}
	}

	opts := domain.SearchOptions{
		Limit:     input.Limit,
		Threshold: input.Threshold,
		Hybrid:    true,
	}
	results, err := s.ports.Page.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	return nil, SearchOutput{
		Results: toResultOutputs(results),
		Count:   len(results),
	}, nil
}

// handleAsk handles the ask_page tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.URL != "" {
		if _, err := s.ports.Page.IndexPage(ctx, input.URL); err != nil {
			return nil, AskOutput{}, err
		}
	}

	answer, err := s.ports.Page.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: toResultOutputs(answer.Results),
	}
	for _, c := range answer.Citations {
		start, end := c.Start, c.End
		if start < 0 || end > len(answer.Text) || start >= end {
			continue
		}
		output.Citations = append(output.Citations, CitationOutput{
			Sentence:      answer.Text[start:end],
			SourceIndices: c.SourceIndices,
			Confidence:    c.Confidence,
		})
	}
	return nil, output, nil
}

func toResultOutputs(results []domain.SearchResult) []ResultOutput {
	out := make([]ResultOutput, len(results))
	for i := range results {
		out[i] = ResultOutput{
			ChunkID:     results[i].Chunk.ID,
			HeadingPath: strings.Join(results[i].Chunk.HeadingPath, " > "),
			Content:     results[i].Chunk.RawText,
			Score:       results[i].Score,
			Locator:     results[i].Chunk.Locator.Selector,
		}
	}
	return out
}
