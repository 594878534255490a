package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memorahanzi/internal/llm"
	"memorahanzi/pkg/retry"
)

func newTestClient(serverURL string) *Client {
	client := NewClient("test-key", "deepseek-chat")
	client.baseURL = serverURL
	client.httpClient = retry.NewHTTPClient(http.DefaultClient, retry.Policy{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
	})
	return client
}

func TestGenerateText(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse response
		serverStatus   int
		wantErr        bool
		wantContent    string
	}{
		{
			name: "successfulGeneration",
			serverResponse: response{
				ID: "test-123",
				Choices: []choice{
					{Message: Message{Role: "assistant", Content: `{"keywords": ["jar", "hang"]}`}},
				},
			},
			serverStatus: http.StatusOK,
			wantContent:  `{"keywords": ["jar", "hang"]}`,
		},
		{
			name: "emptyChoices",
			serverResponse: response{
				ID:      "test-456",
				Choices: []choice{},
			},
			serverStatus: http.StatusOK,
			wantErr:      true,
		},
		{
			name: "emptyContent",
			serverResponse: response{
				Choices: []choice{{Message: Message{Role: "assistant"}}},
			},
			serverStatus: http.StatusOK,
			wantContent:  "",
		},
		{
			name: "apiError",
			serverResponse: response{
				Error: &apiError{Message: "rate limit exceeded", Type: "rate_limit"},
			},
			serverStatus: http.StatusOK,
			wantErr:      true,
		},
		{
			name:         "unauthorized",
			serverStatus: http.StatusUnauthorized,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.Header.Get("Authorization") != "Bearer test-key" {
					t.Errorf("expected Authorization header with Bearer token")
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("expected Content-Type application/json")
				}

				w.WriteHeader(tt.serverStatus)
				if tt.serverStatus == http.StatusOK {
					_ = json.NewEncoder(w).Encode(tt.serverResponse)
				}
			}))
			defer server.Close()

			got, err := newTestClient(server.URL).GenerateText(context.Background(), llm.TextRequest{
				Prompt: "brainstorm keywords",
				JSON:   true,
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("GenerateText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && got != tt.wantContent {
				t.Errorf("GenerateText() = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

func TestGenerateTextSendsTuning(t *testing.T) {
	var received request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(response{
			Choices: []choice{{Message: Message{Role: "assistant", Content: "{}"}}},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GenerateText(context.Background(), llm.TextRequest{
		Prompt:          "p",
		JSON:            true,
		Temperature:     llm.Float32(0.7),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}

	if received.Model != "deepseek-chat" {
		t.Errorf("Model = %q, want deepseek-chat", received.Model)
	}
	if received.ResponseFormat == nil || received.ResponseFormat.Type != "json_object" {
		t.Errorf("ResponseFormat = %+v, want json_object", received.ResponseFormat)
	}
	if received.Temperature == nil || *received.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", received.Temperature)
	}
	if received.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", received.MaxTokens)
	}
	if len(received.Messages) != 1 || received.Messages[0].Role != roleUser {
		t.Errorf("Messages = %+v, want single user message", received.Messages)
	}
}

func TestModel(t *testing.T) {
	client := NewClient("key", "deepseek-chat")
	if client.Model() != "deepseek-chat" {
		t.Errorf("Model() = %q, want deepseek-chat", client.Model())
	}
	if client.Name() != "deepseek" {
		t.Errorf("Name() = %q, want deepseek", client.Name())
	}
}
