package names

import (
	"slices"
	"strings"
	"testing"
	"unicode"

	"pgregory.net/rapid"
)

func TestKeywordSetProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOf(rapid.StringMatching(`\s?[a-z ]{0,8}\s?`)).Draw(t, "seed")
		set := NewKeywordSet(seed...)
		items := set.Items()

		seen := make(map[string]bool)
		for _, kw := range items {
			if kw == "" || kw != strings.TrimSpace(kw) {
				t.Fatalf("untrimmed or blank keyword %q in %q", kw, items)
			}
			if seen[kw] {
				t.Fatalf("duplicate keyword %q in %q", kw, items)
			}
			seen[kw] = true
		}
		for _, kw := range seed {
			if trimmed := strings.TrimSpace(kw); trimmed != "" && !set.Contains(trimmed) {
				t.Fatalf("seed keyword %q missing from %q", trimmed, items)
			}
		}
		if set.Len() != len(items) {
			t.Fatalf("Len() = %d, items = %d", set.Len(), len(items))
		}
	})
}

func TestKeywordSetAddRemoveRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,6}`)).Draw(t, "seed")
		kw := rapid.StringMatching(`\s{0,2}[a-z]{1,6}\s{0,2}`).Draw(t, "kw")

		set := NewKeywordSet(seed...)
		before := set.Items()

		if !set.Add(kw) {
			if !slices.Contains(before, strings.TrimSpace(kw)) {
				t.Fatalf("Add(%q) refused a new keyword", kw)
			}
			return
		}
		if !set.Remove(kw) {
			t.Fatalf("Remove(%q) after Add returned false", kw)
		}
		if !slices.Equal(set.Items(), before) {
			t.Fatalf("items after add/remove = %q, want %q", set.Items(), before)
		}
	})
}

func TestIsLikelyHanziProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ascii := rapid.StringMatching(`[A-Za-z ]{0,12}`).Draw(t, "ascii")
		if IsLikelyHanzi(ascii) {
			t.Fatalf("IsLikelyHanzi(%q) = true for ASCII", ascii)
		}
		hanzi := rapid.RuneFrom(nil, unicode.Han).Draw(t, "hanzi")
		if !IsLikelyHanzi(ascii + string(hanzi)) {
			t.Fatalf("IsLikelyHanzi(%q) = false", ascii+string(hanzi))
		}
	})
}
