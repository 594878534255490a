package llm

import (
	"context"
	"errors"
)

const (
	MIMEJSON = "application/json"
	MIMEJPEG = "image/jpeg"
)

// ErrNotInitialized is returned when no provider was configured, usually
// because the API key is missing.
var ErrNotInitialized = errors.New("AI client not initialized: API key is not configured")

type TextRequest struct {
	Prompt          string
	JSON            bool
	Temperature     *float32
	MaxOutputTokens int32
}

type ImageRequest struct {
	Prompt   string
	Count    int
	MIMEType string
}

type Image struct {
	Data     []byte
	MIMEType string
}

type TextProvider interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
	Name() string
}

type ImageProvider interface {
	GenerateImages(ctx context.Context, req ImageRequest) ([]Image, error)
	Name() string
}

func Float32(v float32) *float32 {
	return &v
}
