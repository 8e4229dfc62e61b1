package llm

import (
	"context"
	"strings"
)

// Client defines the interface for LLM providers. Ask sends one prompt and
// returns the raw response text; interpretation of that text belongs to the
// caller.
type Client interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for an LLM client. Temperature is a pointer
// so an explicit 0 (fully deterministic sampling) is distinguishable from
// unset, which falls back to the provider default.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	MaxTokens   int
	RateLimit   int
}

// limitedClient wraps a provider client with rate limiting and response
// cleanup shared across all providers.
type limitedClient struct {
	client  Client
	limiter *rateLimiter
}

func (c *limitedClient) Ask(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", err
	}

	text, err := c.client.Ask(ctx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(cleanMarkdownWrapper(text)), nil
}

// cleanMarkdownWrapper strips a ```json ... ``` (or plain ```) fence that
// models sometimes emit despite instructions.
func cleanMarkdownWrapper(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (``` or ```json).
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return s
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
