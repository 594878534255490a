package metrics

import (
	"context"
	"time"

	"memorahanzi/internal/llm"
)

const (
	KindText  = "text"
	KindImage = "image"
)

type textProvider struct {
	llm.TextProvider
	c *Collector
}

// InstrumentText wraps p so every call is counted. A nil collector or
// provider returns p unchanged.
func InstrumentText(p llm.TextProvider, c *Collector) llm.TextProvider {
	if p == nil || c == nil {
		return p
	}
	return &textProvider{TextProvider: p, c: c}
}

func (t *textProvider) GenerateText(ctx context.Context, req llm.TextRequest) (string, error) {
	start := time.Now()
	out, err := t.TextProvider.GenerateText(ctx, req)
	t.c.ObserveProvider(KindText, t.Name(), err, time.Since(start))
	return out, err
}

type imageProvider struct {
	llm.ImageProvider
	c *Collector
}

func InstrumentImages(p llm.ImageProvider, c *Collector) llm.ImageProvider {
	if p == nil || c == nil {
		return p
	}
	return &imageProvider{ImageProvider: p, c: c}
}

func (i *imageProvider) GenerateImages(ctx context.Context, req llm.ImageRequest) ([]llm.Image, error) {
	start := time.Now()
	out, err := i.ImageProvider.GenerateImages(ctx, req)
	i.c.ObserveProvider(KindImage, i.Name(), err, time.Since(start))
	return out, err
}
