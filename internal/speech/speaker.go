package speech

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Speaker synthesizes one utterance at a time. Starting a new utterance
// cancels the one in flight, which then returns context.Canceled.
type Speaker struct {
	synth       Synthesizer
	voices      []Voice
	defaultLang string

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewSpeaker(synth Synthesizer, voices []Voice, defaultLang string) *Speaker {
	if defaultLang == "" {
		defaultLang = DefaultLang
	}
	return &Speaker{
		synth:       synth,
		voices:      voices,
		defaultLang: defaultLang,
	}
}

func (s *Speaker) ContentType() string {
	return s.synth.ContentType()
}

func (s *Speaker) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if lang == "" {
		lang = s.defaultLang
	}

	voice, ok := SelectVoice(s.voices, lang)
	if !ok {
		slog.Warn("No voice found for language, using default", "lang", lang)
		voice = Voice{Lang: lang}
	}

	ctx, seq := s.begin(ctx)
	defer s.end(seq)

	slog.Debug("Speaking", "text", text, "voice", voice.Name, "provider", s.synth.Name())
	return s.synth.Synthesize(ctx, text, voice)
}

// Stop cancels the utterance in flight, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Speaker) begin(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	s.cancel = cancel
	return ctx, s.seq
}

func (s *Speaker) end(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq == s.seq && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
