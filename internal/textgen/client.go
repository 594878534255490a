// Package textgen sends prompts to a hosted text-completion provider and
// decodes JSON replies, degrading to a caller-supplied fallback when the reply
// cannot be parsed.
package textgen

import (
	"context"
	"fmt"
	"log/slog"

	"memorahanzi/internal/llm"
)

type Completer interface {
	Complete(ctx context.Context, req llm.TextRequest) (string, error)
}

type Client struct {
	provider llm.TextProvider
}

// NewClient accepts a nil provider; every call then fails with
// llm.ErrNotInitialized.
func NewClient(provider llm.TextProvider) *Client {
	return &Client{provider: provider}
}

func (c *Client) Ready() bool {
	return c != nil && c.provider != nil
}

func (c *Client) Complete(ctx context.Context, req llm.TextRequest) (string, error) {
	if !c.Ready() {
		return "", llm.ErrNotInitialized
	}

	text, err := c.provider.GenerateText(ctx, req)
	if err != nil {
		return "", fmt.Errorf("text endpoint (%s): %w", c.provider.Name(), err)
	}
	return text, nil
}

// Generate asks for a JSON reply shaped like T. A reply that does not decode
// yields fallback and no error; a failed call is returned as an error.
func Generate[T any](ctx context.Context, completer Completer, prompt string, req llm.TextRequest, fallback T) (T, error) {
	req.Prompt = prompt
	req.JSON = true

	raw, err := completer.Complete(ctx, req)
	if err != nil {
		return fallback, err
	}

	result, err := llm.ParseJSON(raw, fallback)
	if err != nil {
		slog.Warn("Failed to parse JSON from model response", "error", err, "raw", raw)
		return fallback, nil
	}
	return result, nil
}
