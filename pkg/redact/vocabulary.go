// Package redact masks known secret values in text written to process
// output streams. A Vocabulary collects the textual variants of every
// registered secret; a Writer wraps any io.Writer and replaces each
// occurrence of a variant with a same-length run of asterisks before
// forwarding the text.
package redact

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

const maskRune = '*'

// Vocabulary is the registry of strings that must never reach an output
// stream unmasked. It only ever grows: there is no removal operation.
// That invariant is what makes the size-based pattern cache below correct.
type Vocabulary struct {
	mu      sync.RWMutex
	words   map[string]struct{}
	ordered []string // insertion order, for stable tie-breaking

	// Compiled alternation over all words, longest first. Rebuilt lazily
	// whenever the vocabulary has grown since the last build.
	pattern     *regexp.Regexp
	patternSize int
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{words: make(map[string]struct{})}
}

// Default is the process-wide vocabulary used by AddWords and WrapStdio.
// Libraries that want isolation construct their own with NewVocabulary.
var Default = NewVocabulary()

// AddWords registers values with the process-wide vocabulary.
func AddWords(values ...string) {
	Default.Add(values...)
}

// Add registers secret values. For each value not already present in raw
// form, all four textual variants (raw, JSON-quoted, and the
// unicode-escaped forms of both) are inserted. Adding a value twice has
// no effect.
func (v *Vocabulary) Add(values ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, seen := v.words[value]; seen {
			continue
		}
		for _, variant := range Variants(value) {
			if _, ok := v.words[variant]; ok {
				continue
			}
			v.words[variant] = struct{}{}
			v.ordered = append(v.ordered, variant)
		}
	}
}

// Len reports the number of distinct variants currently registered.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.words)
}

// Contains reports whether the exact string is a registered variant.
func (v *Vocabulary) Contains(s string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.words[s]
	return ok
}

// Replace masks every occurrence of a registered variant in s with a run
// of asterisks of the same character length. With an empty vocabulary s
// is returned unchanged.
func (v *Vocabulary) Replace(s string) string {
	pattern := v.currentPattern()
	if pattern == nil {
		return s
	}
	return pattern.ReplaceAllStringFunc(s, func(match string) string {
		return strings.Repeat(string(maskRune), utf8.RuneCountInString(match))
	})
}

// currentPattern returns the compiled matcher, rebuilding it if the
// vocabulary has grown since the last build. Size is a valid dirty flag
// because words are never removed.
func (v *Vocabulary) currentPattern() *regexp.Regexp {
	v.mu.RLock()
	size := len(v.words)
	pattern := v.pattern
	cached := v.patternSize
	v.mu.RUnlock()

	if size == 0 {
		return nil
	}
	if pattern != nil && cached == size {
		return pattern
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pattern != nil && v.patternSize == len(v.words) {
		return v.pattern
	}

	// Longer entries first so a secret that contains a shorter one is
	// masked as a single contiguous run. Equal lengths keep registration
	// order (SliceStable), so the first-registered variant wins when two
	// overlap at the same position.
	sorted := make([]string, len(v.ordered))
	copy(sorted, v.ordered)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) > utf8.RuneCountInString(sorted[j])
	})

	quoted := make([]string, len(sorted))
	for i, word := range sorted {
		quoted[i] = regexp.QuoteMeta(word)
	}

	v.pattern = regexp.MustCompile(strings.Join(quoted, "|"))
	v.patternSize = len(v.words)
	return v.pattern
}
