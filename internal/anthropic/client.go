// Package anthropic is a text provider backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"memorahanzi/internal/llm"
)

const (
	defaultMaxTokens = 1024
	jsonInstruction  = "Respond with a single JSON object and nothing else."
)

type Client struct {
	client anthropic.Client
	model  string
}

// NewClient passes opts to the SDK after the key, so tests can point it at a
// local server.
func NewClient(apiKey, model string, opts ...option.RequestOption) *Client {
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	return &Client{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  model,
	}
}

func (c *Client) Name() string {
	return "anthropic"
}

func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}
	if req.JSON {
		params.System = []anthropic.TextBlockParam{{Text: jsonInstruction}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(msg.Content) == 0 {
		return "", errors.New("no content blocks")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
