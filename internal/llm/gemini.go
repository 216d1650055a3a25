package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"dashweave/internal/logging"
)

const defaultModel = "gemini-2.0-flash"

// GeminiClient implements Client over the Google GenAI API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) GeminiOption {
	return func(c *GeminiClient) { c.temperature = t }
}

// WithTimeout bounds each completion call.
func WithTimeout(d time.Duration) GeminiOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewGeminiClient creates a Gemini-backed model client.
func NewGeminiClient(apiKey string, opts ...GeminiOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	c := &GeminiClient{
		client:      client,
		model:       defaultModel,
		temperature: 0.2,
		timeout:     60 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompleteWithSystem sends one completion request and returns the model
// text.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}

	temp := c.temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text := resp.Text()
	logging.FillingDebug("Gemini %s responded in %v (%d chars)", c.model, time.Since(start), len(text))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}
