package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"memorahanzi/internal/speech"
	"memorahanzi/pkg/retry"
)

const (
	baseURL      = "https://api.elevenlabs.io/v1"
	timeout      = 60 * time.Second
	model        = "eleven_multilingual_v2"
	outputFormat = "mp3_44100_128"
)

type Client struct {
	apiKeys    []string
	keyIndex   uint64
	httpClient *retry.HTTPClient
	voiceID    string
	baseURL    string
	stability  float64
	similarity float64
	speed      float64
}

type Config struct {
	APIKeys    []string
	VoiceID    string
	Stability  float64
	Similarity float64
	Speed      float64
}

type option func(*Client)

func withBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = retry.NewHTTPClient(client, retry.Policy{MaxAttempts: 1})
	}
}

func NewClient(cfg Config) *Client {
	return newClient(cfg)
}

func newClient(cfg Config, opts ...option) *Client {
	keys := cfg.APIKeys
	if len(keys) == 0 {
		keys = []string{""}
	}

	c := &Client{
		apiKeys:    keys,
		httpClient: retry.NewHTTPClient(&http.Client{Timeout: timeout}, retry.Policy{}),
		voiceID:    cfg.VoiceID,
		baseURL:    baseURL,
		stability:  cfg.Stability,
		similarity: cfg.Similarity,
		speed:      cfg.Speed,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Name() string {
	return "elevenlabs"
}

func (c *Client) ContentType() string {
	return "audio/mpeg"
}

// Synthesize speaks text with voice.ID, or the configured voice when the
// voice has no id. Quota errors move on to the next API key.
func (c *Client) Synthesize(ctx context.Context, text string, voice speech.Voice) ([]byte, error) {
	voiceID := voice.ID
	if voiceID == "" {
		voiceID = c.voiceID
	}
	if voiceID == "" {
		return nil, fmt.Errorf("elevenlabs: no voice configured")
	}

	url := c.buildURL(voiceID)

	startKey := c.nextAPIKey()
	audio, err := c.doRequestWithKey(ctx, url, text, startKey)
	if err == nil {
		return audio, nil
	}
	if !isQuotaError(err) {
		return nil, err
	}

	for i := 1; i < len(c.apiKeys); i++ {
		key := c.getKeyAtOffset(i)
		if key == startKey {
			continue
		}
		audio, err = c.doRequestWithKey(ctx, url, text, key)
		if err == nil {
			return audio, nil
		}
		if !isQuotaError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("all API keys exhausted: %w", err)
}

func (c *Client) nextAPIKey() string {
	if len(c.apiKeys) == 1 {
		return c.apiKeys[0]
	}
	idx := atomic.AddUint64(&c.keyIndex, 1)
	return c.apiKeys[idx%uint64(len(c.apiKeys))]
}

func (c *Client) getKeyAtOffset(offset int) string {
	idx := atomic.LoadUint64(&c.keyIndex)
	return c.apiKeys[(idx+uint64(offset))%uint64(len(c.apiKeys))]
}

func (c *Client) doRequestWithKey(ctx context.Context, url, text, apiKey string) ([]byte, error) {
	req, err := c.buildRequest(ctx, url, text, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: %s - %s", resp.Status, string(body))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("elevenlabs: empty audio")
	}

	return body, nil
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "quota_exceeded") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "429")
}

func (c *Client) buildURL(voiceID string) string {
	return fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.baseURL, voiceID, outputFormat)
}

func (c *Client) buildRequest(ctx context.Context, url, text, apiKey string) (*http.Request, error) {
	settings := map[string]any{}
	if c.stability > 0 {
		settings["stability"] = c.stability
	}
	if c.similarity > 0 {
		settings["similarity_boost"] = c.similarity
	}
	if c.speed > 0 {
		settings["speed"] = c.speed
	}

	payload := map[string]any{
		"text":     text,
		"model_id": model,
	}
	if len(settings) > 0 {
		payload["voice_settings"] = settings
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", apiKey)

	return req, nil
}
