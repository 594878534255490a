// Package authors flags names in a pasted author list that are likely of
// Chinese origin. The classification is a single best-effort model call.
package authors

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"memorahanzi/internal/llm"
	"memorahanzi/internal/names"
	"memorahanzi/internal/textgen"
	"memorahanzi/pkg/prompts"
)

var delimiters = regexp.MustCompile(`[,;\n]+`)

var (
	ErrEmptyInput   = &names.ValidationError{Message: "Please paste a list of authors."}
	ErrNoValidNames = &names.ValidationError{Message: "No valid author names found. Ensure names are at least 2 characters long and separated by commas, semicolons, or newlines."}
)

type Author struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	IsPotentiallyChinese bool   `json:"isPotentiallyChinese"`
}

type identifyResponse struct {
	IdentifiedNames []string `json:"identifiedNames"`
}

type Classifier struct {
	text      textgen.Completer
	prompts   *prompts.Prompts
	minLength int
}

func NewClassifier(text textgen.Completer, p *prompts.Prompts, minLength int) *Classifier {
	if p == nil {
		p = prompts.Default()
	}
	if minLength <= 0 {
		minLength = 2
	}
	return &Classifier{text: text, prompts: p, minLength: minLength}
}

func (c *Classifier) Disclaimer() string {
	return strings.TrimSpace(c.prompts.Authors.Disclaimer)
}

// SplitCandidates splits raw on runs of commas, semicolons and newlines, trims
// each piece and drops pieces shorter than minLength runes.
func SplitCandidates(raw string, minLength int) []string {
	var names []string
	for _, piece := range delimiters.Split(raw, -1) {
		piece = strings.TrimSpace(piece)
		if utf8.RuneCountInString(piece) >= minLength {
			names = append(names, piece)
		}
	}
	return names
}

// Classify returns one Author per candidate name, in input order. An
// unparseable reply marks every author as not identified.
func (c *Classifier) Classify(ctx context.Context, raw string) ([]Author, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	candidates := SplitCandidates(raw, c.minLength)
	if len(candidates) == 0 {
		return nil, noValidNames(c.minLength)
	}

	prompt, err := c.prompts.RenderIdentify(prompts.IdentifyParams{Names: strings.Join(candidates, "\n")})
	if err != nil {
		return nil, err
	}

	slog.Info("Classifying authors...", "count", len(candidates))
	result, err := textgen.Generate(ctx, c.text, prompt, llm.TextRequest{}, identifyResponse{})
	if err != nil {
		return nil, fmt.Errorf("failed to identify chinese names: %w", err)
	}

	identified := make(map[string]struct{}, len(result.IdentifiedNames))
	for _, name := range result.IdentifiedNames {
		identified[name] = struct{}{}
	}

	authors := make([]Author, len(candidates))
	for i, name := range candidates {
		_, ok := identified[name]
		authors[i] = Author{
			ID:                   name + "-" + strconv.Itoa(i),
			Name:                 name,
			IsPotentiallyChinese: ok,
		}
	}

	slog.Debug("Authors classified", "identified", len(result.IdentifiedNames))
	return authors, nil
}

func noValidNames(minLength int) error {
	if minLength == 2 {
		return ErrNoValidNames
	}
	return fmt.Errorf("%w (minimum length %d)", ErrNoValidNames, minLength)
}

// Find returns the author with the given id.
func Find(authors []Author, id string) (Author, bool) {
	for _, a := range authors {
		if a.ID == id {
			return a, true
		}
	}
	return Author{}, false
}
