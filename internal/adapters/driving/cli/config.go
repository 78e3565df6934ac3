package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and configure embedding and LLM providers, search defaults and
filtering options. Settings live in ~/.pagelens/config.toml.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding [provider] [model]",
	Short: "Configure the embedding provider",
	Long: `Set the embedding provider used for semantic search.

Available providers:
  ollama  - local models via Ollama (no API key required)
  openai  - OpenAI embedding API (requires --api-key)
  none    - disable embeddings, keyword search only`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "llm [provider] [model]",
	Short: "Configure the answer generator",
	Long: `Set the LLM provider used to answer questions.

Available providers:
  ollama     - local models via Ollama (no API key required)
  openai     - OpenAI chat API (requires --api-key)
  anthropic  - Anthropic messages API (requires --api-key)
  none       - disable answer generation, ask returns matching chunks`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigLLM,
}

var configAPIKey string

func init() {
	configEmbeddingCmd.Flags().StringVar(&configAPIKey, "api-key", "", "API key for remote providers")
	configLLMCmd.Flags().StringVar(&configAPIKey, "api-key", "", "API key for remote providers")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := file.Load("")
	if err != nil {
		return err
	}

	cmd.Println("Embedding:")
	printProvider(cmd, settings.Embedding)
	cmd.Println("LLM:")
	printProvider(cmd, settings.LLM)
	cmd.Println("Search:")
	cmd.Printf("  limit:     %d\n", settings.Search.Limit)
	cmd.Printf("  threshold: %.2f\n", settings.Search.Threshold)
	cmd.Printf("  hybrid:    %t\n", settings.Search.Hybrid)
	return nil
}

func printProvider(cmd *cobra.Command, p file.ProviderSettings) {
	if p.Provider == "" {
		cmd.Println("  disabled")
		return
	}
	cmd.Printf("  provider: %s\n", p.Provider)
	cmd.Printf("  model:    %s\n", p.Model)
	if p.APIKey != "" {
		cmd.Println("  api key:  configured")
	}
}

func runConfigEmbedding(cmd *cobra.Command, args []string) error {
	return updateProvider(cmd, args, func(s *file.Settings, p file.ProviderSettings) {
		s.Embedding = p
	})
}

func runConfigLLM(cmd *cobra.Command, args []string) error {
	return updateProvider(cmd, args, func(s *file.Settings, p file.ProviderSettings) {
		s.LLM = p
	})
}

func updateProvider(cmd *cobra.Command, args []string, assign func(*file.Settings, file.ProviderSettings)) error {
	settings, err := file.Load("")
	if err != nil {
		return err
	}

	p := file.ProviderSettings{APIKey: configAPIKey}
	if args[0] != "none" {
		p.Provider = args[0]
		if len(args) > 1 {
			p.Model = args[1]
		}
	}
	assign(settings, p)

	if err := file.Save("", settings); err != nil {
		return err
	}
	cmd.Println("Settings updated.")
	return nil
}
