// Package file provides the TOML-backed settings store.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultDirName is the directory under the user's home that holds config
// and data.
const DefaultDirName = ".pagelens"

// Settings is the persisted configuration, stored as TOML at
// ~/.pagelens/config.toml.
type Settings struct {
	Embedding ProviderSettings `toml:"embedding"`
	LLM       ProviderSettings `toml:"llm"`
	Search    SearchSettings   `toml:"search"`
	Filter    FilterSettings   `toml:"filter"`
}

// ProviderSettings selects and configures one model backend. Provider is a
// tagged choice: "ollama" runs locally, "openai"/"anthropic" are remote APIs
// requiring a key. An empty provider disables the service and the pipeline
// degrades accordingly.
type ProviderSettings struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// SearchSettings carries the query-time defaults.
type SearchSettings struct {
	Limit     int     `toml:"limit"`
	Threshold float64 `toml:"threshold"`
	Hybrid    bool    `toml:"hybrid"`
}

// FilterSettings carries the corpus-pruning knobs.
type FilterSettings struct {
	MinQualityScore float64 `toml:"min_quality_score"`
	MinLexicalScore float64 `toml:"min_lexical_score"`
	Dedupe          bool    `toml:"dedupe"`
	MaxChunks       int     `toml:"max_chunks"`
}

// DefaultSettings returns the configuration used when no file exists:
// a local Ollama stack and the documented search defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Embedding: ProviderSettings{Provider: "ollama", Model: "nomic-embed-text"},
		LLM:       ProviderSettings{Provider: "ollama", Model: "llama3.2"},
		Search:    SearchSettings{Limit: 10, Threshold: 0.7, Hybrid: true},
		Filter:    FilterSettings{Dedupe: true},
	}
}

// Dir resolves the config directory, defaulting to ~/.pagelens.
func Dir(configDir string) (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// Load reads settings from configDir (default ~/.pagelens). A missing file
// yields the defaults, not an error.
func Load(configDir string) (*Settings, error) {
	dir, err := Dir(configDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	settings := DefaultSettings()
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return settings, nil
}

// Save writes settings to configDir, creating the directory when needed.
func Save(configDir string, settings *Settings) error {
	dir, err := Dir(configDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
