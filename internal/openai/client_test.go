package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"memorahanzi/internal/llm"
)

func completion(content ...string) string {
	choices := make([]map[string]any, len(content))
	for i, c := range content {
		choices[i] = map[string]any{
			"index":         i,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": c},
		}
	}
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": choices,
	})
	return string(body)
}

func TestGenerateText(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{"keywords", http.StatusOK, completion(`{"keywords": ["may", "lee"]}`), `{"keywords": ["may", "lee"]}`, ""},
		{"noChoices", http.StatusOK, completion(), "", "no response choices"},
		{"emptyContent", http.StatusOK, completion(""), "", ""},
		{"unauthorized", http.StatusUnauthorized, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`, "", "generate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			var sent map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				_ = json.NewDecoder(r.Body).Decode(&sent)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-key", "gpt-4o-mini", server.URL)
			got, err := client.GenerateText(context.Background(), llm.TextRequest{
				Prompt:          "Generate keywords for Měi Lì",
				JSON:            true,
				Temperature:     llm.Float32(0.5),
				MaxOutputTokens: 256,
			})

			if path != "/chat/completions" {
				t.Errorf("path = %q, want /chat/completions", path)
			}
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("GenerateText() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateText() = %q, want %q", got, tt.want)
			}

			if sent["model"] != "gpt-4o-mini" {
				t.Errorf("model = %v", sent["model"])
			}
			format, _ := sent["response_format"].(map[string]any)
			if format["type"] != "json_object" {
				t.Errorf("response_format = %v", sent["response_format"])
			}
			if sent["temperature"] != 0.5 {
				t.Errorf("temperature = %v", sent["temperature"])
			}
		})
	}
}

func TestName(t *testing.T) {
	if got := NewClient("k", "m", "").Name(); got != "openai" {
		t.Errorf("Name() = %q", got)
	}
}
