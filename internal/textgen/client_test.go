package textgen

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"memorahanzi/internal/llm"
)

type fakeProvider struct {
	text    string
	err     error
	lastReq llm.TextRequest
	calls   int
}

func (f *fakeProvider) GenerateText(_ context.Context, req llm.TextRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.text, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

func TestCompleteWithoutProvider(t *testing.T) {
	client := NewClient(nil)
	if client.Ready() {
		t.Error("Ready() = true without provider")
	}

	_, err := client.Complete(context.Background(), llm.TextRequest{Prompt: "hi"})
	if !errors.Is(err, llm.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestCompleteWrapsProviderError(t *testing.T) {
	quota := errors.New("quota exceeded")
	client := NewClient(&fakeProvider{err: quota})

	_, err := client.Complete(context.Background(), llm.TextRequest{Prompt: "hi"})
	if !errors.Is(err, quota) {
		t.Fatalf("err = %v, want wrapped quota error", err)
	}
	if got := err.Error(); got != "text endpoint (fake): quota exceeded" {
		t.Errorf("err = %q", got)
	}
}

func TestGenerate(t *testing.T) {
	fallback := keywordsResponse{Keywords: []string{}}

	tests := []struct {
		name    string
		text    string
		err     error
		want    []string
		wantErr bool
	}{
		{
			name: "plainJSON",
			text: `{"keywords": ["jar", "hang"]}`,
			want: []string{"jar", "hang"},
		},
		{
			name: "fencedJSONWithLanguage",
			text: "```json\n{\"keywords\": [\"may\", \"lee\"]}\n```",
			want: []string{"may", "lee"},
		},
		{
			name: "fencedJSONWithoutLanguage",
			text: "```\n{\"keywords\": [\"dew\"]}\n```",
			want: []string{"dew"},
		},
		{
			name: "malformedFallsBack",
			text: "Sure! Here are some keywords: jar, hang",
			want: []string{},
		},
		{
			name: "wrongShapeFallsBack",
			text: `{"keywords": "jar"}`,
			want: []string{},
		},
		{
			name: "emptyReplyFallsBack",
			text: "",
			want: []string{},
		},
		{
			name:    "callErrorPropagates",
			err:     errors.New("network down"),
			want:    []string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{text: tt.text, err: tt.err}
			client := NewClient(provider)

			got, err := Generate(context.Background(), client, "prompt", llm.TextRequest{}, fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got.Keywords, tt.want) {
				t.Errorf("Keywords = %#v, want %#v", got.Keywords, tt.want)
			}
			if !provider.lastReq.JSON {
				t.Error("expected JSON response format to be requested")
			}
			if provider.lastReq.Prompt != "prompt" {
				t.Errorf("Prompt = %q, want prompt", provider.lastReq.Prompt)
			}
		})
	}
}

func TestGenerateKeepsTuning(t *testing.T) {
	provider := &fakeProvider{text: `{"keywords": ["x"]}`}
	client := NewClient(provider)

	req := llm.TextRequest{Temperature: llm.Float32(0.7), MaxOutputTokens: 1024}
	if _, err := Generate(context.Background(), client, "p", req, keywordsResponse{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if provider.lastReq.Temperature == nil || *provider.lastReq.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", provider.lastReq.Temperature)
	}
	if provider.lastReq.MaxOutputTokens != 1024 {
		t.Errorf("MaxOutputTokens = %d, want 1024", provider.lastReq.MaxOutputTokens)
	}
}
