package driven

import "context"

// LLMService produces answers from prompts. This is an optional service -
// when nil, questions return ranked search results without a generated
// answer or citations.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (GPT-4 family)
//   - Anthropic (Claude)
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// OnChunk, when set, receives partial output as it streams. The full
	// answer is still returned at the end.
	OnChunk func(chunk string)
}
