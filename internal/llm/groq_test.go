package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conneroisu/groq-go"
)

func chatCompletionBody(t *testing.T, contents ...string) string {
	t.Helper()

	choices := make([]map[string]any, len(contents))
	for i, c := range contents {
		choices[i] = map[string]any{
			"index":         i,
			"message":       map[string]any{"role": "assistant", "content": c},
			"finish_reason": "stop",
		}
	}
	body, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "llama-3.3-70b-versatile",
		"choices": choices,
		"usage":   map[string]int{"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20},
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func newGroqTestClient(t *testing.T, serverURL string) *GroqClient {
	t.Helper()
	client, err := groq.NewClient("test-api-key", groq.WithBaseURL(serverURL+"/"))
	if err != nil {
		t.Fatalf("groq.NewClient: %v", err)
	}
	return &GroqClient{client: client, model: groq.ChatModel("llama-3.3-70b-versatile")}
}

func TestGroqGenerateText(t *testing.T) {
	tests := []struct {
		name       string
		body       func(t *testing.T) string
		status     int
		wantErr    string
		wantOutput string
	}{
		{
			name:       "pinyinReply",
			body:       func(t *testing.T) string { return chatCompletionBody(t, `{"pinyin": "Zhāng Wěi"}`) },
			status:     http.StatusOK,
			wantOutput: `{"pinyin": "Zhāng Wěi"}`,
		},
		{
			name:       "blankContent",
			body:       func(t *testing.T) string { return chatCompletionBody(t, "") },
			status:     http.StatusOK,
			wantOutput: "",
		},
		{
			name:    "noChoices",
			body:    func(t *testing.T) string { return chatCompletionBody(t) },
			status:  http.StatusOK,
			wantErr: "no response",
		},
		{
			name: "invalidModel",
			body: func(*testing.T) string {
				return `{"error": {"message": "model not found", "type": "invalid_request_error"}}`
			},
			status:  http.StatusBadRequest,
			wantErr: "generate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body(t)
			var sent map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&sent)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			got, err := newGroqTestClient(t, server.URL).GenerateText(context.Background(), TextRequest{
				Prompt:      "Provide the Pinyin for 张伟",
				JSON:        true,
				Temperature: Float32(0.7),
			})

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("GenerateText() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GenerateText() error = %v", err)
			}
			if got != tt.wantOutput {
				t.Errorf("GenerateText() = %q, want %q", got, tt.wantOutput)
			}

			format, _ := sent["response_format"].(map[string]any)
			if format["type"] != "json_object" {
				t.Errorf("response_format = %v, want json_object", sent["response_format"])
			}
		})
	}
}

func TestGroqName(t *testing.T) {
	if name := newGroqTestClient(t, "http://localhost").Name(); name != "groq" {
		t.Errorf("Name() = %q, want groq", name)
	}
}

func TestGroqCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newGroqTestClient(t, server.URL).GenerateText(ctx, TextRequest{Prompt: "hi"}); err == nil {
		t.Error("expected error for canceled context")
	}
}
