package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"memorahanzi/internal/llm"
)

var (
	ErrNoImage        = errors.New("no image generated or image data missing")
	ErrInvalidDataURI = errors.New("invalid data URI")
)

type Client struct {
	provider llm.ImageProvider
	mimeType string
}

func NewClient(provider llm.ImageProvider, mimeType string) *Client {
	if mimeType == "" {
		mimeType = llm.MIMEJPEG
	}
	return &Client{provider: provider, mimeType: mimeType}
}

func (c *Client) Ready() bool {
	return c != nil && c.provider != nil
}

// GenerateImage requests exactly one image and returns it as a base64 data URI.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.Ready() {
		return "", llm.ErrNotInitialized
	}

	images, err := c.provider.GenerateImages(ctx, llm.ImageRequest{
		Prompt:   prompt,
		Count:    1,
		MIMEType: c.mimeType,
	})
	if err != nil {
		return "", fmt.Errorf("image endpoint (%s): %w", c.provider.Name(), err)
	}

	if len(images) == 0 || len(images[0].Data) == 0 {
		return "", ErrNoImage
	}

	return EncodeDataURI(c.mimeType, images[0].Data), nil
}

func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURI
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mimeType, data, nil
}
