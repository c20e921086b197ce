package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// LLMService provides the generative model calls of the pipeline.
//
// Implementations include OpenAI (and compatible endpoints) and Anthropic.
type LLMService interface {
	// Answer sends an assembled payload, preceded by its history, and
	// returns the model's reply.
	Answer(ctx context.Context, payload domain.PromptPayload, opts ChatOptions) (string, error)

	// Summarise produces a retrieval-oriented summary of a text or rendered table.
	Summarise(ctx context.Context, instruction, content string) (string, error)

	// DescribeImage produces a retrieval-oriented description of an image.
	DescribeImage(ctx context.Context, instruction string, image domain.InlineImage) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatOptions configures answer generation.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
