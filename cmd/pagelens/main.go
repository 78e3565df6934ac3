// Command pagelens indexes a web page and answers queries over it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pagelens/pagelens-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/pagelens/pagelens-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/pagelens/pagelens-cli/internal/adapters/driven/embedding/openai"
	"github.com/pagelens/pagelens-cli/internal/adapters/driven/fetch"
	llmanthropic "github.com/pagelens/pagelens-cli/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/pagelens/pagelens-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/pagelens/pagelens-cli/internal/adapters/driven/llm/openai"
	"github.com/pagelens/pagelens-cli/internal/adapters/driven/storage/sqlite"
	"github.com/pagelens/pagelens-cli/internal/adapters/driving/cli"
	"github.com/pagelens/pagelens-cli/internal/citations"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/core/services"
	"github.com/pagelens/pagelens-cli/internal/filter"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// pingTimeout bounds the startup provider health check.
const pingTimeout = 3 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	settings, err := file.Load("")
	if err != nil {
		return err
	}

	embedder := buildEmbedder(settings.Embedding)
	llm := buildLLM(settings.LLM)
	embedder, llm = pingServices(embedder, llm)

	store, err := sqlite.NewStore("")
	if err != nil {
		logger.Warn("Snapshot store unavailable, embeddings will not be cached: %v", err)
		store = nil
	}
	defer closeAll(embedder, llm, store)

	opts := []services.Option{
		services.WithFilter(filter.New(filter.Config{
			MinQualityScore: settings.Filter.MinQualityScore,
			MinLexicalScore: settings.Filter.MinLexicalScore,
			Dedupe:          settings.Filter.Dedupe,
			MaxChunks:       settings.Filter.MaxChunks,
		})),
		services.WithCitationMapper(citations.New(embedder)),
	}
	if embedder != nil {
		opts = append(opts, services.WithEmbedder(embedder))
	}
	if llm != nil {
		opts = append(opts, services.WithLLM(llm))
	}
	if store != nil {
		opts = append(opts, services.WithSnapshotStore(store))
	}

	svc := services.NewPageService(fetch.New(fetch.Config{}), opts...)

	cli.SetPageService(svc)
	cli.SetVersion(version)
	cli.SetSearchDefaults(settings.Search.Limit, settings.Search.Threshold, settings.Search.Hybrid)
	return cli.Execute()
}

// buildEmbedder constructs the embedding service for the configured provider,
// or nil when embeddings are disabled or misconfigured.
func buildEmbedder(cfg file.ProviderSettings) driven.EmbeddingService {
	switch cfg.Provider {
	case "ollama":
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "openai":
		svc, err := embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			logger.Warn("Embedding provider disabled: %v", err)
			return nil
		}
		return svc
	case "":
		return nil
	default:
		logger.Warn("Unknown embedding provider %q, embeddings disabled", cfg.Provider)
		return nil
	}
}

// buildLLM constructs the answer generator for the configured provider, or
// nil when generation is disabled or misconfigured.
func buildLLM(cfg file.ProviderSettings) driven.LLMService {
	switch cfg.Provider {
	case "ollama":
		return llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "openai":
		svc, err := llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			logger.Warn("LLM provider disabled: %v", err)
			return nil
		}
		return svc
	case "anthropic":
		svc, err := llmanthropic.NewLLMService(llmanthropic.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			logger.Warn("LLM provider disabled: %v", err)
			return nil
		}
		return svc
	case "":
		return nil
	default:
		logger.Warn("Unknown LLM provider %q, generation disabled", cfg.Provider)
		return nil
	}
}

// pingServices verifies the configured providers are reachable before any
// command runs. An unreachable provider is closed and dropped so commands
// degrade the same way as with no provider configured.
func pingServices(embedder driven.EmbeddingService, llm driven.LLMService) (driven.EmbeddingService, driven.LLMService) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if embedder != nil {
		if err := embedder.Ping(ctx); err != nil {
			logger.Warn("Embedding provider unreachable, search degrades to keyword-only: %v", err)
			embedder.Close() //nolint:errcheck
			embedder = nil
		}
	}
	if llm != nil {
		if err := llm.Ping(ctx); err != nil {
			logger.Warn("LLM provider unreachable, answer generation disabled: %v", err)
			llm.Close() //nolint:errcheck
			llm = nil
		}
	}
	return embedder, llm
}

func closeAll(embedder driven.EmbeddingService, llm driven.LLMService, store driven.SnapshotStore) {
	if embedder != nil {
		embedder.Close() //nolint:errcheck
	}
	if llm != nil {
		llm.Close() //nolint:errcheck
	}
	if store != nil {
		store.Close() //nolint:errcheck
	}
}
