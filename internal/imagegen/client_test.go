package imagegen

import (
	"context"
	"errors"
	"testing"

	"memorahanzi/internal/llm"
)

type fakeImageProvider struct {
	images  []llm.Image
	err     error
	lastReq llm.ImageRequest
}

func (f *fakeImageProvider) GenerateImages(_ context.Context, req llm.ImageRequest) ([]llm.Image, error) {
	f.lastReq = req
	return f.images, f.err
}

func (f *fakeImageProvider) Name() string { return "fake" }

func TestGenerateImage(t *testing.T) {
	tests := []struct {
		name    string
		images  []llm.Image
		err     error
		want    string
		wantErr error
	}{
		{
			name:   "singleImage",
			images: []llm.Image{{Data: []byte("abc"), MIMEType: llm.MIMEJPEG}},
			want:   "data:image/jpeg;base64,YWJj",
		},
		{
			name:    "zeroImages",
			images:  nil,
			wantErr: ErrNoImage,
		},
		{
			name:    "missingBytes",
			images:  []llm.Image{{MIMEType: llm.MIMEJPEG}},
			wantErr: ErrNoImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeImageProvider{images: tt.images, err: tt.err}
			client := NewClient(provider, "")

			got, err := client.GenerateImage(context.Background(), "a cartoon")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if got != "" {
					t.Errorf("expected no image on error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateImage() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateImage() = %q, want %q", got, tt.want)
			}
			if provider.lastReq.Count != 1 {
				t.Errorf("Count = %d, want 1", provider.lastReq.Count)
			}
			if provider.lastReq.MIMEType != llm.MIMEJPEG {
				t.Errorf("MIMEType = %q, want %q", provider.lastReq.MIMEType, llm.MIMEJPEG)
			}
		})
	}
}

func TestGenerateImageProviderError(t *testing.T) {
	denied := errors.New("permission denied")
	client := NewClient(&fakeImageProvider{err: denied}, llm.MIMEJPEG)

	_, err := client.GenerateImage(context.Background(), "prompt")
	if !errors.Is(err, denied) {
		t.Errorf("err = %v, want wrapped provider error", err)
	}
}

func TestGenerateImageNotInitialized(t *testing.T) {
	client := NewClient(nil, "")
	_, err := client.GenerateImage(context.Background(), "prompt")
	if !errors.Is(err, llm.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestDecodeDataURI(t *testing.T) {
	mimeType, data, err := DecodeDataURI(EncodeDataURI("image/jpeg", []byte("hello")))
	if err != nil {
		t.Fatalf("DecodeDataURI() error = %v", err)
	}
	if mimeType != "image/jpeg" || string(data) != "hello" {
		t.Errorf("got (%q, %q)", mimeType, data)
	}

	invalid := []string{
		"https://example.com/a.jpg",
		"data:image/jpeg;base64",
		"data:image/jpeg,plain",
		"data:image/jpeg;base64,!!!",
	}
	for _, uri := range invalid {
		if _, _, err := DecodeDataURI(uri); !errors.Is(err, ErrInvalidDataURI) {
			t.Errorf("DecodeDataURI(%q) err = %v, want ErrInvalidDataURI", uri, err)
		}
	}
}
