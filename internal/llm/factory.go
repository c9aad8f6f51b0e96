package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/family-finance/internal/config"
)

// New builds the configured provider wrapped with rate limiting.
func New(ctx context.Context, cfg config.LLMConfig) (Client, error) {
	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		c, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderGemini:
		c, err = NewGemini(ctx, GeminiConfig{
			APIKey:   cfg.APIKey,
			Project:  cfg.Project,
			Location: cfg.Location,
			Model:    cfg.Model,
		})
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRateLimit(c, cfg.RateLimit, cfg.Burst), nil
}
