// Package ai provides factory functions for creating model service
// adapters from provider configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropiccap "github.com/tessera-search/tessera/internal/adapters/driven/captioning/anthropic"
	ollamacap "github.com/tessera-search/tessera/internal/adapters/driven/captioning/ollama"
	openaicap "github.com/tessera-search/tessera/internal/adapters/driven/captioning/openai"
	ollamaembed "github.com/tessera-search/tessera/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/tessera-search/tessera/internal/adapters/driven/embedding/openai"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity
// validation.
const pingTimeout = 5 * time.Second

// Provider names accepted by the factories.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Config selects and configures one external model service.
type Config struct {
	// Provider is openai, anthropic or ollama.
	Provider string

	// APIKey authenticates against hosted providers. Unused by ollama.
	APIKey string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Model names the model to use; empty selects the provider default.
	Model string
}

// CreateCaptioner builds a captioning service for the configured
// provider.
func CreateCaptioner(cfg Config) (driven.Captioner, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return openaicap.NewCaptioner(openaicap.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case ProviderAnthropic:
		return anthropiccap.NewCaptioner(anthropiccap.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case ProviderOllama:
		return ollamacap.NewCaptioner(ollamacap.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown captioning provider %q", cfg.Provider)
	}
}

// CreateEmbeddingService builds an embedding service for the
// configured provider.
func CreateEmbeddingService(cfg Config) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// pingable is the connectivity check both service kinds share.
type pingable interface {
	Ping(ctx context.Context) error
	ModelName() string
}

// Validate pings a service with a bounded timeout and reports an
// actionable error on failure.
func Validate(svc pingable) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("service %s unreachable: %w", svc.ModelName(), err)
	}
	return nil
}
