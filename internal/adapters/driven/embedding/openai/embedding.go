// Package openai embeds summaries and questions with the OpenAI embeddings
// API or any API compatible with it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// maxBatch is the largest input list sent in one request.
	maxBatch = 512
)

// Config configures the client. Only APIKey is required.
type Config struct {
	APIKey string

	// BaseURL points the client at Azure OpenAI or another compatible API.
	BaseURL string

	Model   string
	Timeout time.Duration

	// Dimensions truncates text-embedding-3 vectors. Zero uses the model's
	// native size.
	Dimensions int

	// MaxRetries is passed to the SDK, which retries 429s and 5xxs itself.
	MaxRetries int
}

// EmbeddingService is an EmbeddingService over the OpenAI API.
type EmbeddingService struct {
	client      openai.Client
	model       string
	dimensions  int
	shortenable bool
}

// NewEmbeddingService validates cfg and builds the client. The vector size
// must be known up front because it fixes the dimensionality of every
// namespace written with it.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		known, ok := domain.EmbeddingDimensions()[cfg.Model]
		if !ok {
			return nil, fmt.Errorf("%w: unknown dimensions for model %q", domain.ErrConfiguration, cfg.Model)
		}
		dimensions = known
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &EmbeddingService{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		dimensions:  dimensions,
		shortenable: strings.HasPrefix(cfg.Model, "text-embedding-3"),
	}, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in chunks of maxBatch and returns the vectors in
// input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for chunk := range slicesChunk(texts, maxBatch) {
		vectors, err := s.request(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) request(ctx context.Context, texts []string) ([][]float32, error) {
	// The API rejects empty strings; a blank summary still needs a vector
	// so its record stays reachable.
	inputs := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		inputs[i] = t
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model: openai.EmbeddingModel(s.model),
	}
	if s.shortenable {
		params.Dimensions = openai.Int(int64(s.dimensions))
	}

	resp, err := s.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != s.dimensions {
			return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, len(d.Embedding), s.dimensions)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		vectors[d.Index] = v
	}
	return vectors, nil
}

// classify marks failures the caller may retry (rate limits, server
// errors, timeouts) as transient.
func classify(err error) error {
	err = fmt.Errorf("%w: openai: %w", domain.ErrEmbeddingUnavailable, err)

	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError):
		return domain.Transient(err)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.Transient(err)
	}
	return err
}

// slicesChunk yields consecutive sub-slices of at most n elements.
func slicesChunk(s []string, n int) func(func([]string) bool) {
	return func(yield func([]string) bool) {
		for start := 0; start < len(s); start += n {
			if !yield(s[start:min(start+n, len(s))]) {
				return
			}
		}
	}
}

func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks the key by listing models, which costs nothing.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

func (s *EmbeddingService) Close() error {
	return nil
}
