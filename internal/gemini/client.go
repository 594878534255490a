package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"memorahanzi/internal/llm"
)

type Config struct {
	APIKey     string
	Project    string
	Location   string
	TextModel  string
	ImageModel string
	DailyLimit int
	UsageFile  string
	BaseURL    string
}

type Client struct {
	client     *genai.Client
	textModel  string
	imageModel string
	usage      *usageCounter
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Project != "" {
		clientConfig = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Client{
		client:     client,
		textModel:  cfg.TextModel,
		imageModel: cfg.ImageModel,
		usage:      newUsageCounter(cfg.UsageFile, cfg.DailyLimit),
	}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	if err := c.usage.check(); err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	}
	if req.JSON {
		config.ResponseMIMEType = llm.MIMEJSON
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(req.Prompt), config)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	c.usage.increment()

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response")
	}

	// An empty reply is returned as is; callers treat it as malformed output.
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

func (c *Client) GenerateImages(ctx context.Context, req llm.ImageRequest) ([]llm.Image, error) {
	if err := c.usage.check(); err != nil {
		return nil, err
	}

	mimeType := req.MIMEType
	if mimeType == "" {
		mimeType = llm.MIMEJPEG
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := c.client.Models.GenerateImages(ctx, c.imageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		OutputMIMEType: mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}

	c.usage.increment()

	return imagesFromResponse(resp, mimeType), nil
}

func imagesFromResponse(resp *genai.GenerateImagesResponse, mimeType string) []llm.Image {
	if resp == nil {
		return nil
	}

	images := make([]llm.Image, 0, len(resp.GeneratedImages))
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil {
			continue
		}
		imageType := generated.Image.MIMEType
		if imageType == "" {
			imageType = mimeType
		}
		images = append(images, llm.Image{
			Data:     generated.Image.ImageBytes,
			MIMEType: imageType,
		})
	}
	return images
}
