package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/store"
)

// NewProvider builds the provider cfg names. The result retries transient
// failures and, when events is non-nil, records every attempt.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, logger *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → retry → logging → base, so each attempt is its own event.
	p := base
	if events != nil {
		p = WithLogging(p, events, logger)
	}
	return WithRetry(p, cfg.Retry), nil
}
