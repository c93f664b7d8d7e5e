package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
)

// Client wraps an OpenAI-compatible endpoint for chat completions and
// embeddings. Transient provider errors are retried with exponential
// backoff up to maxRetries attempts.
type Client struct {
	api        *openai.Client
	maxRetries uint64
}

func NewClient(apiKey, baseURL string, maxRetries int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		maxRetries: uint64(maxRetries),
	}
}

// Complete sends the messages to the chat model and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error) {
	var content string
	op := func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    model,
			Messages: messages,
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("no choices in response"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	}
	if err := backoff.Retry(op, c.policy(ctx)); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return content, nil
}

// Embed returns the embedding vector for a single input string.
func (c *Client) Embed(ctx context.Context, model, input string) ([]float64, error) {
	var vector []float64
	op := func() error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(model),
			Input: []string{input},
		})
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) == 0 {
			return backoff.Permanent(errors.New("no embedding in response"))
		}
		vector = make([]float64, len(resp.Data[0].Embedding))
		for i, v := range resp.Data[0].Embedding {
			vector[i] = float64(v)
		}
		return nil
	}
	if err := backoff.Retry(op, c.policy(ctx)); err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	return vector, nil
}

func (c *Client) policy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
}

// classify marks non-transient provider errors as permanent so the
// retry loop gives up immediately.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return err
		}
		return backoff.Permanent(err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "overloaded") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection") {
		return err
	}
	logger.Warn("provider error treated as permanent", zap.Error(err))
	return backoff.Permanent(err)
}
