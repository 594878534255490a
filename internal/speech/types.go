package speech

import (
	"context"
	"errors"
	"strings"
)

const DefaultLang = "zh-CN"

var ErrEmptyText = errors.New("no text to speak")

type Voice struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Lang string `yaml:"lang" json:"lang"`
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
	ContentType() string
	Name() string
}

// SelectVoice prefers a voice whose tag equals lang, then one whose tag
// starts with the primary subtag of lang ("zh" for "zh-CN").
func SelectVoice(voices []Voice, lang string) (Voice, bool) {
	for _, v := range voices {
		if v.Lang == lang {
			return v, true
		}
	}

	primary, _, _ := strings.Cut(lang, "-")
	for _, v := range voices {
		if strings.HasPrefix(v.Lang, primary) {
			return v, true
		}
	}

	return Voice{}, false
}
