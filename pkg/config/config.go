package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	defaultTextProvider      = ProviderGemini
	defaultTextModel         = "gemini-2.5-flash"
	defaultImageModel        = "imagen-3.0-generate-002"
	defaultImageMIMEType     = "image/jpeg"
	defaultKeywordAttempts   = 3
	defaultKeywordBaseDelay  = 2 * time.Second
	defaultKeywordMultiplier = 2.0
	defaultKeywordTemp       = 0.7
	defaultKeywordMaxTokens  = 1024
	defaultMinNameLength     = 2
	defaultGeminiLocation    = "us-central1"
	defaultUsageFile         = ".memorahanzi_usage"
	defaultGroqModel         = "llama-3.3-70b-versatile"
	defaultDeepSeekModel     = "deepseek-chat"
	defaultOpenAIModel       = "gpt-4o-mini"
	defaultAnthropicModel    = "claude-3-5-haiku-latest"
	defaultSpeechProvider    = "stub"
	defaultSpeechLang        = "zh-CN"
	defaultServerAddr        = ":8080"
	defaultOutputDir         = "./output"
	defaultExportPrefix      = "memorahanzi"
)

var ErrUnknownProvider = errors.New("unknown text provider")

type Config struct {
	APIKey              string
	APIKeySecret        string
	GoogleCloudProject  string
	GoogleCloudLocation string
	GroqAPIKey          string
	DeepSeekAPIKey      string
	OpenAIAPIKey        string
	AnthropicAPIKey     string
	ElevenLabsAPIKey    string
	GCSBucket           string
	S3AccessKeyID       string
	S3SecretAccessKey   string

	Text      TextConfig      `yaml:"text"`
	Image     ImageConfig     `yaml:"image"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Names     NamesConfig     `yaml:"names"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Groq      GroqConfig      `yaml:"groq"`
	DeepSeek  DeepSeekConfig  `yaml:"deepseek"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	Speech    SpeechConfig    `yaml:"speech"`
	Server    ServerConfig    `yaml:"server"`
	Output    OutputConfig    `yaml:"output"`
	GCS       GCSConfig       `yaml:"gcs"`
	S3        S3Config        `yaml:"s3"`
	Prompts   PromptsConfig   `yaml:"prompts"`
}

type TextConfig struct {
	Provider string `yaml:"provider"` // gemini, groq, deepseek, openai or anthropic
	Model    string `yaml:"model"`
}

type ImageConfig struct {
	Model    string `yaml:"model"`
	MIMEType string `yaml:"mime_type"`
}

type KeywordsConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	BaseDelay       time.Duration `yaml:"base_delay"`
	Multiplier      float64       `yaml:"multiplier"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
}

type NamesConfig struct {
	MinLength int `yaml:"min_length"`
}

type GeminiConfig struct {
	Location   string `yaml:"location"`
	DailyLimit int    `yaml:"daily_limit"`
	UsageFile  string `yaml:"usage_file"`
	BaseURL    string `yaml:"base_url"`
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type DeepSeekConfig struct {
	Model string `yaml:"model"`
}

// OpenAIConfig also serves OpenAI-compatible endpoints through BaseURL.
type OpenAIConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	Model string `yaml:"model"`
}

type Voice struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Lang string `yaml:"lang"`
}

type SpeechConfig struct {
	Provider    string  `yaml:"provider"` // "stub" or "elevenlabs"
	DefaultLang string  `yaml:"default_lang"`
	VoiceID     string  `yaml:"voice_id"`
	Stability   float64 `yaml:"stability"`
	Similarity  float64 `yaml:"similarity"`
	Voices      []Voice `yaml:"voices"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"` // requests per second on AI routes, 0 = off
	RateBurst      int      `yaml:"rate_burst"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type GCSConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Prefix          string `yaml:"prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type PromptsConfig struct {
	Path string `yaml:"path"`
}

// accessSecret is swapped in tests.
var accessSecret = accessSecretVersion

func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, DefaultConfigPath)
}

// LoadFrom reads .env, the environment and the YAML file at path. A missing
// file or API key only logs a warning; a malformed file is an error.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIKey:              getEnvOrDefault("API_KEY", os.Getenv("GEMINI_API_KEY")),
		APIKeySecret:        os.Getenv("API_KEY_SECRET"),
		GoogleCloudProject:  os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GoogleCloudLocation: os.Getenv("GOOGLE_CLOUD_LOCATION"),
		GroqAPIKey:          os.Getenv("GROQ_API_KEY"),
		DeepSeekAPIKey:      os.Getenv("DEEPSEEK_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		ElevenLabsAPIKey:    os.Getenv("ELEVENLABS_API_KEY"),
		GCSBucket:           os.Getenv("GCS_BUCKET"),
		S3AccessKeyID:       getEnvOrDefault("S3_ACCESS_KEY_ID", os.Getenv("AWS_ACCESS_KEY_ID")),
		S3SecretAccessKey:   getEnvOrDefault("S3_SECRET_ACCESS_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := resolveAPIKey(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config file found, using defaults", "path", path)
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Text.Provider {
	case ProviderGemini, ProviderGroq, ProviderDeepSeek, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Text.Provider)
	}
	if c.GCS.Enabled && c.GCSBucket == "" {
		return errors.New("gcs.enabled requires GCS_BUCKET")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return errors.New("s3.enabled requires s3.bucket")
	}
	if c.GCS.Enabled && c.S3.Enabled {
		return errors.New("enable at most one of gcs and s3")
	}
	return nil
}

// TextAPIKey returns the credential of the configured text provider.
func (c *Config) TextAPIKey() string {
	switch c.Text.Provider {
	case ProviderGroq:
		return c.GroqAPIKey
	case ProviderDeepSeek:
		return c.DeepSeekAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.APIKey
	}
}

// ElevenLabsKeys splits the comma-separated ELEVENLABS_API_KEY value.
func (c *Config) ElevenLabsKeys() []string {
	var keys []string
	for _, k := range strings.Split(c.ElevenLabsAPIKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// UseVertex reports whether Gemini calls go through Vertex AI instead of
// the Gemini API.
func (c *Config) UseVertex() bool {
	return c.APIKey == "" && c.GoogleCloudProject != ""
}

func resolveAPIKey(ctx context.Context, cfg *Config) error {
	if cfg.APIKey != "" || cfg.APIKeySecret == "" {
		return nil
	}

	name, err := secretResourceName(cfg.APIKeySecret, cfg.GoogleCloudProject)
	if err != nil {
		return err
	}
	key, err := accessSecret(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to read API key secret: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(key)
	return nil
}

// secretResourceName expands a bare secret id to its latest version in
// project. A bare id needs a project.
func secretResourceName(secret, project string) (string, error) {
	if strings.HasPrefix(secret, "projects/") {
		if !strings.Contains(secret, "/versions/") {
			return secret + "/versions/latest", nil
		}
		return secret, nil
	}
	if project == "" {
		return "", fmt.Errorf("API_KEY_SECRET %q needs GOOGLE_CLOUD_PROJECT or a full projects/... name", secret)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", project, secret), nil
}

func accessSecretVersion(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("access %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func applyDefaults(cfg *Config) {
	applyTextDefaults(cfg)
	applyImageDefaults(cfg)
	applyKeywordsDefaults(cfg)
	applyNamesDefaults(cfg)
	applyGeminiDefaults(cfg)
	applyProviderModelDefaults(cfg)
	applySpeechDefaults(cfg)
	applyServerDefaults(cfg)
	applyStorageDefaults(cfg)
}

func applyTextDefaults(cfg *Config) {
	if cfg.Text.Provider == "" {
		cfg.Text.Provider = defaultTextProvider
	}
	cfg.Text.Provider = strings.ToLower(cfg.Text.Provider)
	if cfg.Text.Model == "" {
		cfg.Text.Model = defaultTextModel
	}
}

func applyImageDefaults(cfg *Config) {
	if cfg.Image.Model == "" {
		cfg.Image.Model = defaultImageModel
	}
	if cfg.Image.MIMEType == "" {
		cfg.Image.MIMEType = defaultImageMIMEType
	}
}

func applyKeywordsDefaults(cfg *Config) {
	if cfg.Keywords.MaxAttempts == 0 {
		cfg.Keywords.MaxAttempts = defaultKeywordAttempts
	}
	if cfg.Keywords.BaseDelay == 0 {
		cfg.Keywords.BaseDelay = defaultKeywordBaseDelay
	}
	if cfg.Keywords.Multiplier == 0 {
		cfg.Keywords.Multiplier = defaultKeywordMultiplier
	}
	if cfg.Keywords.Temperature == 0 {
		cfg.Keywords.Temperature = defaultKeywordTemp
	}
	if cfg.Keywords.MaxOutputTokens == 0 {
		cfg.Keywords.MaxOutputTokens = defaultKeywordMaxTokens
	}
}

func applyNamesDefaults(cfg *Config) {
	if cfg.Names.MinLength == 0 {
		cfg.Names.MinLength = defaultMinNameLength
	}
}

func applyGeminiDefaults(cfg *Config) {
	if cfg.GoogleCloudLocation != "" {
		cfg.Gemini.Location = cfg.GoogleCloudLocation
	}
	if cfg.Gemini.Location == "" {
		cfg.Gemini.Location = defaultGeminiLocation
	}
	if cfg.Gemini.UsageFile == "" {
		cfg.Gemini.UsageFile = defaultUsageFile
	}
}

func applyProviderModelDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.DeepSeek.Model == "" {
		cfg.DeepSeek.Model = defaultDeepSeekModel
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = defaultOpenAIModel
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = defaultAnthropicModel
	}
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = defaultSpeechProvider
	}
	if cfg.Speech.DefaultLang == "" {
		cfg.Speech.DefaultLang = defaultSpeechLang
	}
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.GCS.Prefix == "" {
		cfg.GCS.Prefix = defaultExportPrefix
	}
	if cfg.S3.Prefix == "" {
		cfg.S3.Prefix = defaultExportPrefix
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
