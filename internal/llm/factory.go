package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewClient creates an LLM client based on the provided configuration.
// The returned client is rate limited and cleans markdown fences from
// responses before returning them.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		client, err = newOpenAIClient(cfg)
	case "anthropic":
		client, err = newAnthropicClient(cfg)
	case "google":
		client, err = newGoogleClient(ctx, cfg)
	case "ollama":
		client, err = newOllamaClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &limitedClient{
		client:  client,
		limiter: newRateLimiter(cfg.RateLimit),
	}, nil
}
