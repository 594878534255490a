package names

import (
	"errors"
	"slices"
	"strings"
)

type State string

const (
	StateIdle                  State = "idle"
	StateDetectingScript       State = "detecting_script"
	StateResolvingPinyin       State = "resolving_pinyin"
	StateBrainstormingKeywords State = "brainstorming_keywords"
	StateReady                 State = "ready"
	StateGeneratingImage       State = "generating_image"
	StateErrored               State = "errored"
)

// Busy reports whether a stage is waiting on the network.
func (s State) Busy() bool {
	switch s {
	case StateDetectingScript, StateResolvingPinyin, StateBrainstormingKeywords, StateGeneratingImage:
		return true
	}
	return false
}

// seeding reports whether Submit has yet to replace the keyword set.
func (s State) seeding() bool {
	switch s {
	case StateDetectingScript, StateResolvingPinyin, StateBrainstormingKeywords:
		return true
	}
	return false
}

type Record struct {
	OriginalName string   `json:"originalName"`
	Pinyin       string   `json:"pinyin,omitempty"`
	Syllables    []string `json:"syllables,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func (r Record) clone() Record {
	r.Syllables = slices.Clone(r.Syllables)
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

type Snapshot struct {
	Generation uint64   `json:"generation"`
	State      State    `json:"state"`
	Record     Record   `json:"record"`
	Keywords   []string `json:"editableKeywords"`
}

// ValidationError is a rejected user action. Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrNameTooShort       = &ValidationError{Message: "Name is too short to process."}
	ErrImagePrerequisites = &ValidationError{Message: "Pinyin and keywords are needed to generate an image."}

	ErrPinyinUnresolved = errors.New("could not derive pinyin")
	ErrBusy             = errors.New("another stage is still running")
	ErrSuperseded       = errors.New("name was superseded by a newer submission")
)

// KeywordSet is an insertion-ordered set of keywords with exact-match
// uniqueness. The zero value is empty and ready to use.
type KeywordSet struct {
	items []string
}

func NewKeywordSet(seed ...string) *KeywordSet {
	s := &KeywordSet{}
	for _, kw := range seed {
		s.Add(kw)
	}
	return s
}

// Add trims kw and appends it. Blank and duplicate keywords are ignored.
func (s *KeywordSet) Add(kw string) bool {
	kw = strings.TrimSpace(kw)
	if kw == "" || s.Contains(kw) {
		return false
	}
	s.items = append(s.items, kw)
	return true
}

// Remove trims kw the way Add does before looking it up.
func (s *KeywordSet) Remove(kw string) bool {
	i := slices.Index(s.items, strings.TrimSpace(kw))
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

func (s *KeywordSet) Contains(kw string) bool {
	return slices.Contains(s.items, strings.TrimSpace(kw))
}

func (s *KeywordSet) Items() []string {
	return append([]string{}, s.items...)
}

func (s *KeywordSet) Len() int {
	return len(s.items)
}
