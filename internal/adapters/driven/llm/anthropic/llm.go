// Package anthropic provides an LLM service adapter using the Anthropic API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024

	summaryMaxTokens = 512
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Model is the model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxRetries is the SDK retry count for transient failures.
	MaxRetries int
}

// LLMService provides LLM operations using the Anthropic Messages API.
type LLMService struct {
	client anthropic.Client
	model  string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &LLMService{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Answer sends the history followed by one user message holding the images
// and then the assembled text. System turns are lifted into the system prompt.
func (s *LLMService) Answer(ctx context.Context, payload domain.PromptPayload, opts driven.ChatOptions) (string, error) {
	var system []anthropic.TextBlockParam
	messages := make([]anthropic.MessageParam, 0, len(payload.History)+1)
	for _, turn := range payload.History {
		switch turn.Role {
		case domain.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: turn.Content})
		case domain.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(userBlocks(payload.Images, payload.Text)...))

	return s.send(ctx, system, messages, opts)
}

// Summarise produces a retrieval-oriented summary of a text or rendered table.
func (s *LLMService) Summarise(ctx context.Context, instruction, content string) (string, error) {
	system := []anthropic.TextBlockParam{{Text: instruction}}
	messages := []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(content))}
	return s.send(ctx, system, messages, driven.ChatOptions{MaxTokens: summaryMaxTokens})
}

// DescribeImage produces a retrieval-oriented description of an image.
func (s *LLMService) DescribeImage(ctx context.Context, instruction string, image domain.InlineImage) (string, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(userBlocks([]domain.InlineImage{image}, instruction)...),
	}
	return s.send(ctx, nil, messages, driven.ChatOptions{MaxTokens: summaryMaxTokens})
}

func (s *LLMService) send(
	ctx context.Context,
	system []anthropic.TextBlockParam,
	messages []anthropic.MessageParam,
	opts driven.ChatOptions,
) (string, error) {
	// Anthropic requires max_tokens on every request.
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(maxTokens),
		System:    system,
		Messages:  messages,
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}

	msg, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %w", domain.ErrLLMUnavailable, err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content in response")
	}
	return strings.TrimSpace(text.String()), nil
}

// userBlocks builds a multimodal user message body, images first.
func userBlocks(images []domain.InlineImage, text string) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, img.Data))
	}
	return append(blocks, anthropic.NewTextBlock(text))
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
