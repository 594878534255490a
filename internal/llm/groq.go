package llm

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"
)

type GroqClient struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewGroqClient(apiKey, model string) (*GroqClient, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &GroqClient{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *GroqClient) Name() string {
	return "groq"
}

func (c *GroqClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	request := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleUser, Content: req.Prompt},
		},
		MaxTokens: int(req.MaxOutputTokens),
	}
	if req.Temperature != nil {
		request.Temperature = *req.Temperature
	}
	if req.JSON {
		request.ResponseFormat = &groq.ChatResponseFormat{Type: "json_object"}
	}

	resp, err := c.client.ChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	return resp.Choices[0].Message.Content, nil
}
