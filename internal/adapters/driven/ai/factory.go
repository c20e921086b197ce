// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	rediscache "github.com/custodia-labs/docchat/internal/adapters/driven/cache/redis"
	openaiembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when no LLM is configured.
	Warnings         []string          // Non-fatal issues, e.g. an unreachable cache.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close() //nolint:errcheck
	}
	if r.LLMService != nil {
		r.LLMService.Close() //nolint:errcheck
	}
}

// Init builds the embedding service, wrapped by the Redis cache when one is
// configured, and the LLM service. The embedding service is required; the LLM
// is optional since retrieval works without it.
func Init(ctx context.Context, settings *domain.AppSettings, log *zap.Logger) (*InitResult, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: settings are required", domain.ErrConfiguration)
	}
	result := &InitResult{}

	// 1. Embedding service.
	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider is not configured (set OPENAI_API_KEY)",
			domain.ErrConfiguration)
	}
	result.EmbeddingService = embedder

	// 2. Optional embedding cache. An unreachable cache is a warning, not a failure.
	if settings.Cache.RedisAddr != "" {
		cached, err := rediscache.NewEmbeddingCache(ctx, embedder, rediscache.Options{
			Addr:     settings.Cache.RedisAddr,
			Password: settings.Cache.RedisPassword,
			DB:       settings.Cache.RedisDB,
			TTL:      time.Duration(settings.Cache.TTLHours) * time.Hour,
		}, log)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("embedding cache disabled: %v", err))
		} else {
			result.EmbeddingService = cached
		}
	}

	// 3. LLM service.
	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		result.Warnings = append(result.Warnings, "LLM is not configured; answers and summaries are unavailable")
	} else {
		result.LLMService = llm
	}

	return result, nil
}

// Validate pings every configured provider and joins the failures.
func Validate(ctx context.Context, result *InitResult) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var errs []error
	if result.EmbeddingService != nil {
		if err := result.EmbeddingService.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err))
		}
	}
	if result.LLMService != nil {
		if err := result.LLMService.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err))
		}
	}
	return errors.Join(errs...)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
