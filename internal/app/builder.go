package app

import (
	"context"
	"fmt"
	"log/slog"

	"memorahanzi/internal/anthropic"
	"memorahanzi/internal/authors"
	"memorahanzi/internal/deepseek"
	"memorahanzi/internal/gemini"
	"memorahanzi/internal/imagegen"
	"memorahanzi/internal/llm"
	"memorahanzi/internal/metrics"
	"memorahanzi/internal/names"
	"memorahanzi/internal/openai"
	"memorahanzi/internal/speech"
	"memorahanzi/internal/speech/elevenlabs"
	"memorahanzi/internal/storage"
	"memorahanzi/internal/textgen"
	"memorahanzi/pkg/config"
	"memorahanzi/pkg/prompts"
	"memorahanzi/pkg/retry"
)

// BuildService wires providers from cfg. Missing credentials are not an
// error: the affected clients report llm.ErrNotInitialized when used.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	p, err := prompts.Load(cfg.Prompts.Path)
	if err != nil {
		return nil, err
	}

	var geminiClient *gemini.Client
	if cfg.APIKey != "" || cfg.UseVertex() {
		geminiCfg := gemini.Config{
			APIKey:     cfg.APIKey,
			TextModel:  cfg.Text.Model,
			ImageModel: cfg.Image.Model,
			DailyLimit: cfg.Gemini.DailyLimit,
			UsageFile:  cfg.Gemini.UsageFile,
			BaseURL:    cfg.Gemini.BaseURL,
		}
		if cfg.UseVertex() {
			geminiCfg.Project = cfg.GoogleCloudProject
			geminiCfg.Location = cfg.Gemini.Location
		}
		geminiClient, err = gemini.NewClient(ctx, geminiCfg)
		if err != nil {
			return nil, err
		}
	} else {
		slog.Warn("API key is not configured; image generation is disabled")
	}

	textProvider, err := buildTextProvider(cfg, geminiClient)
	if err != nil {
		return nil, err
	}
	if textProvider == nil {
		slog.Warn("Text provider is not configured; name processing is disabled", "provider", cfg.Text.Provider)
	}

	var imageProvider llm.ImageProvider
	if geminiClient != nil {
		imageProvider = geminiClient
	}

	collector := metrics.NewCollector()
	textClient := textgen.NewClient(metrics.InstrumentText(textProvider, collector))
	imageClient := imagegen.NewClient(metrics.InstrumentImages(imageProvider, collector), cfg.Image.MIMEType)

	pipeline := names.NewPipeline(textClient, imageClient, p, names.Options{
		MinLength: cfg.Names.MinLength,
		Retry: retry.Policy{
			MaxAttempts: cfg.Keywords.MaxAttempts,
			BaseDelay:   cfg.Keywords.BaseDelay,
			Multiplier:  cfg.Keywords.Multiplier,
		},
		KeywordTemperature: cfg.Keywords.Temperature,
		KeywordMaxTokens:   cfg.Keywords.MaxOutputTokens,
	})

	store, closer, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service := NewService(ServiceOptions{
		Config:     cfg,
		Text:       textClient,
		Images:     imageClient,
		Pipeline:   pipeline,
		Classifier: authors.NewClassifier(textClient, p, cfg.Names.MinLength),
		Speaker:    speech.NewSpeaker(buildSynthesizer(cfg), voices(cfg.Speech.Voices), cfg.Speech.DefaultLang),
		Store:      store,
		Metrics:    collector,
	})
	if closer != nil {
		service.closers = append(service.closers, closer)
	}

	return service, nil
}

func buildTextProvider(cfg *config.Config, geminiClient *gemini.Client) (llm.TextProvider, error) {
	if cfg.Text.Provider == config.ProviderGemini {
		// The Vertex backend authenticates without an API key.
		if geminiClient == nil {
			return nil, nil
		}
		return geminiClient, nil
	}

	key := cfg.TextAPIKey()
	switch cfg.Text.Provider {
	case config.ProviderGroq, config.ProviderDeepSeek, config.ProviderOpenAI, config.ProviderAnthropic:
		if key == "" {
			return nil, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Text.Provider)
	}

	switch cfg.Text.Provider {
	case config.ProviderGroq:
		return llm.NewGroqClient(key, cfg.Groq.Model)
	case config.ProviderDeepSeek:
		return deepseek.NewClient(key, cfg.DeepSeek.Model), nil
	case config.ProviderOpenAI:
		return openai.NewClient(key, cfg.OpenAI.Model, cfg.OpenAI.BaseURL), nil
	default:
		return anthropic.NewClient(key, cfg.Anthropic.Model), nil
	}
}

func buildSynthesizer(cfg *config.Config) speech.Synthesizer {
	if cfg.Speech.Provider == "elevenlabs" {
		if keys := cfg.ElevenLabsKeys(); len(keys) > 0 {
			return elevenlabs.NewClient(elevenlabs.Config{
				APIKeys:    keys,
				VoiceID:    cfg.Speech.VoiceID,
				Stability:  cfg.Speech.Stability,
				Similarity: cfg.Speech.Similarity,
			})
		}
		slog.Warn("ELEVENLABS_API_KEY is not set, falling back to silent speech")
	}
	return speech.NewStubSynthesizer(0)
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	if cfg.GCS.Enabled {
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCS.Prefix, cfg.GCS.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return gcs, gcs.Close, nil
	}
	if cfg.S3.Enabled {
		s3, err := storage.NewS3Storage(storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	}
	return storage.NewLocalStorage(cfg.Output.Dir), nil, nil
}

func voices(configured []config.Voice) []speech.Voice {
	out := make([]speech.Voice, len(configured))
	for i, v := range configured {
		out[i] = speech.Voice{ID: v.ID, Name: v.Name, Lang: v.Lang}
	}
	return out
}
