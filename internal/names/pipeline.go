package names

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"memorahanzi/internal/llm"
	"memorahanzi/internal/textgen"
	"memorahanzi/pkg/prompts"
	"memorahanzi/pkg/retry"
)

const pinyinUnresolvedMessage = "Could not derive Pinyin. Try entering Pinyin directly."

var errEmptyKeywords = errors.New("invalid response format or empty keywords")

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	MinLength          int
	Retry              retry.Policy
	KeywordTemperature float32
	KeywordMaxTokens   int32
	// DetectHanzi decides whether a submitted name needs Pinyin resolution.
	// Defaults to IsLikelyHanzi.
	DetectHanzi func(name string) bool
}

func DefaultOptions() Options {
	return Options{
		MinLength:          2,
		Retry:              retry.DefaultPolicy(),
		KeywordTemperature: 0.7,
		KeywordMaxTokens:   1024,
		DetectHanzi:        IsLikelyHanzi,
	}
}

func (o Options) withDefaults() Options {
	defaults := DefaultOptions()
	if o.MinLength <= 0 {
		o.MinLength = defaults.MinLength
	}
	if o.KeywordTemperature <= 0 {
		o.KeywordTemperature = defaults.KeywordTemperature
	}
	if o.KeywordMaxTokens <= 0 {
		o.KeywordMaxTokens = defaults.KeywordMaxTokens
	}
	if o.DetectHanzi == nil {
		o.DetectHanzi = defaults.DetectHanzi
	}
	return o
}

type pinyinResponse struct {
	Pinyin string `json:"pinyin"`
}

type keywordsResponse struct {
	Keywords []string `json:"keywords"`
}

// Pipeline processes one name at a time. Every Submit starts a new generation;
// results that arrive for an older generation are dropped and reported to
// their caller as ErrSuperseded. The lock is never held across a network call.
type Pipeline struct {
	text    textgen.Completer
	images  ImageGenerator
	prompts *prompts.Prompts
	opts    Options

	mu         sync.Mutex
	generation uint64
	state      State
	record     Record
	keywords   *KeywordSet

	subscribers map[uint64]chan Snapshot
	nextSub     uint64
}

func NewPipeline(text textgen.Completer, images ImageGenerator, p *prompts.Prompts, opts Options) *Pipeline {
	if p == nil {
		p = prompts.Default()
	}
	return &Pipeline{
		text:     text,
		images:   images,
		prompts:  p,
		opts:     opts.withDefaults(),
		state:    StateIdle,
		keywords: NewKeywordSet(),
	}
}

func (p *Pipeline) MinLength() int {
	return p.opts.MinLength
}

// Submit replaces the current name and runs script detection, Pinyin
// resolution and keyword brainstorming. The returned snapshot reflects the
// state after the last stage this call was allowed to write.
func (p *Pipeline) Submit(ctx context.Context, name string) (Snapshot, error) {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.keywords = NewKeywordSet()
	if utf8.RuneCountInString(name) < p.opts.MinLength {
		p.record = Record{OriginalName: name, Error: ErrNameTooShort.Message}
		p.state = StateErrored
		snap := p.publishLocked()
		p.mu.Unlock()
		return snap, ErrNameTooShort
	}
	p.record = Record{OriginalName: name}
	p.state = StateDetectingScript
	p.publishLocked()
	p.mu.Unlock()

	pinyin := name
	if p.opts.DetectHanzi(name) {
		if err := p.update(gen, func() { p.state = StateResolvingPinyin }); err != nil {
			return p.Snapshot(), err
		}

		slog.Info("Resolving pinyin...", "name", name)
		resolved, err := p.resolvePinyin(ctx, name)
		if err != nil {
			err = fmt.Errorf("failed to get pinyin for %s: %w", name, err)
			return p.fail(gen, err, "Processing Error: "+err.Error())
		}
		pinyin = resolved
	}

	err := p.update(gen, func() {
		p.record.Pinyin = pinyin
		p.record.Syllables = strings.Fields(pinyin)
	})
	if err != nil {
		return p.Snapshot(), err
	}
	if pinyin == "" {
		return p.fail(gen, ErrPinyinUnresolved, pinyinUnresolvedMessage)
	}

	if err := p.update(gen, func() { p.state = StateBrainstormingKeywords }); err != nil {
		return p.Snapshot(), err
	}

	slog.Info("Brainstorming keywords...", "pinyin", pinyin)
	keywords, err := p.brainstorm(ctx, gen, pinyin)
	if errors.Is(err, ErrSuperseded) {
		return p.Snapshot(), err
	}
	if err != nil {
		return p.fail(gen, err, "Processing Error: "+err.Error())
	}

	var snap Snapshot
	err = p.update(gen, func() {
		p.record.Keywords = keywords
		p.keywords = NewKeywordSet(keywords...)
		p.state = StateReady
		snap = p.snapshotLocked()
	})
	if err != nil {
		return p.Snapshot(), err
	}
	return snap, nil
}

func (p *Pipeline) resolvePinyin(ctx context.Context, name string) (string, error) {
	prompt, err := p.prompts.RenderPinyin(prompts.PinyinParams{Name: name})
	if err != nil {
		return "", err
	}

	result, err := textgen.Generate(ctx, p.text, prompt, llm.TextRequest{}, pinyinResponse{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Pinyin), nil
}

// brainstorm treats a failed call, an unparseable reply and an empty keyword
// list alike as a failed attempt.
func (p *Pipeline) brainstorm(ctx context.Context, gen uint64, pinyin string) ([]string, error) {
	prompt, err := p.prompts.RenderKeywords(prompts.KeywordsParams{Pinyin: pinyin})
	if err != nil {
		return nil, err
	}

	req := llm.TextRequest{
		Temperature:     llm.Float32(p.opts.KeywordTemperature),
		MaxOutputTokens: p.opts.KeywordMaxTokens,
	}

	var keywords []string
	err = retry.Do(ctx, p.opts.Retry, func(ctx context.Context, attempt int) error {
		if !p.current(gen) {
			return retry.Permanent(ErrSuperseded)
		}

		result, err := textgen.Generate(ctx, p.text, prompt, req, keywordsResponse{})
		if errors.Is(err, llm.ErrNotInitialized) {
			return retry.Permanent(err)
		}
		if err == nil {
			keywords = cleanKeywords(result.Keywords)
			if len(keywords) == 0 {
				err = errEmptyKeywords
			}
		}
		if err != nil {
			slog.Warn("Keyword attempt failed", "attempt", attempt, "pinyin", pinyin, "error", err)
		}
		return err
	})

	var exhausted *retry.Error
	if errors.As(err, &exhausted) {
		return nil, fmt.Errorf("failed to get keywords for %s after %d attempts: %w", pinyin, exhausted.Attempts, exhausted.Last)
	}
	if err != nil {
		return nil, err
	}
	return keywords, nil
}

func cleanKeywords(raw []string) []string {
	keywords := make([]string, 0, len(raw))
	for _, kw := range raw {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// AddKeyword reports whether the set changed. Edits are refused with ErrBusy
// until brainstorming has seeded the set, since the seed would replace them.
func (p *Pipeline) AddKeyword(kw string) (Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.seeding() {
		return p.snapshotLocked(), false, ErrBusy
	}
	if !p.keywords.Add(kw) {
		return p.snapshotLocked(), false, nil
	}
	return p.publishLocked(), true, nil
}

func (p *Pipeline) RemoveKeyword(kw string) (Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state.seeding() {
		return p.snapshotLocked(), false, ErrBusy
	}
	if !p.keywords.Remove(kw) {
		return p.snapshotLocked(), false, nil
	}
	return p.publishLocked(), true, nil
}

// GenerateImage illustrates the current name from its Pinyin and the
// editable keywords. A failure clears only the image; Pinyin and keywords
// are kept.
func (p *Pipeline) GenerateImage(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	if p.state.Busy() {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrBusy
	}
	if p.record.Pinyin == "" || p.keywords.Len() == 0 {
		p.record.Error = ErrImagePrerequisites.Message
		snap := p.publishLocked()
		p.mu.Unlock()
		return snap, ErrImagePrerequisites
	}

	gen := p.generation
	params := prompts.ImageParams{
		Name:     p.record.OriginalName,
		Pinyin:   p.record.Pinyin,
		Keywords: strings.Join(p.keywords.Items(), ", "),
	}
	p.record.ImageURL = ""
	p.record.Error = ""
	p.state = StateGeneratingImage
	p.publishLocked()
	p.mu.Unlock()

	prompt, err := p.prompts.RenderImage(params)
	if err != nil {
		return p.fail(gen, err, "Image Generation Error: "+err.Error())
	}

	slog.Info("Generating image...", "name", params.Name, "keywords", params.Keywords)
	uri, err := p.images.GenerateImage(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("failed to generate image: %w", err)
		return p.fail(gen, err, "Image Generation Error: "+err.Error())
	}

	var snap Snapshot
	err = p.update(gen, func() {
		p.record.ImageURL = uri
		p.state = StateReady
		snap = p.snapshotLocked()
	})
	if err != nil {
		return p.Snapshot(), err
	}
	return snap, nil
}

func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Pipeline) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: p.generation,
		State:      p.state,
		Record:     p.record.clone(),
		Keywords:   p.keywords.Items(),
	}
}

func (p *Pipeline) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.generation
}

// update applies fn only while gen is still the active generation.
func (p *Pipeline) update(gen uint64, fn func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return ErrSuperseded
	}
	fn()
	p.publishLocked()
	return nil
}

func (p *Pipeline) fail(gen uint64, err error, message string) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return p.snapshotLocked(), ErrSuperseded
	}
	p.record.Error = message
	p.state = StateErrored
	return p.publishLocked(), err
}

// Subscribe returns a channel that receives a snapshot after every change.
// A subscriber that falls behind misses snapshots rather than blocking the
// pipeline. cancel closes the channel.
func (p *Pipeline) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	p.mu.Lock()
	if p.subscribers == nil {
		p.subscribers = make(map[uint64]chan Snapshot)
	}
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = ch
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, id)
			close(ch)
			p.mu.Unlock()
		})
	}
	return ch, cancel
}

func (p *Pipeline) publishLocked() Snapshot {
	snap := p.snapshotLocked()
	for _, ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}
