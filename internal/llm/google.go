package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// googleClient implements the Client interface using Google's Gemini API.
type googleClient struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// newGoogleClient creates a new Gemini client.
func newGoogleClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &googleClient{
		client:      client,
		model:       model,
		temperature: temperatureOrDefault(cfg.Temperature),
		maxTokens:   maxTokensOrDefault(cfg.MaxTokens),
	}, nil
}

// Ask sends a single-prompt generation request.
func (c *googleClient) Ask(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: int32(c.maxTokens),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}
