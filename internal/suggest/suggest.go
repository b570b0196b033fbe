// Package suggest produces ranked completion candidates for a typed
// prefix.
//
// Candidates come from two passes: an exact prefix lookup against the
// dictionary, ranked by usage count, and a Jaro-Winkler fuzzy pass over
// words sharing the first letter, which catches transposed or dropped
// characters near the start of a word. Results are memoized per prefix
// in an LRU cache that is purged whenever the underlying dictionary
// changes.
package suggest

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	lru "github.com/hashicorp/golang-lru/v2"

	"sysinput/internal/dictionary"
)

const (
	defaultMaxCandidates  = 8
	defaultFuzzyThreshold = 0.90
	defaultMinPrefixLen   = 2
	defaultCacheSize      = 256
)

// Source says which pass produced a candidate.
type Source int

const (
	// SourcePrefix means the word starts with the typed prefix.
	SourcePrefix Source = iota
	// SourceFuzzy means the word was close enough by string similarity.
	SourceFuzzy
)

// Candidate is one ranked completion.
type Candidate struct {
	Word   string
	Score  float64
	Source Source
}

// Option is a functional option for configuring a [Suggester].
type Option func(*Suggester)

// WithMaxCandidates caps the number of candidates returned. Default: 8.
func WithMaxCandidates(n int) Option {
	return func(s *Suggester) {
		s.max = n
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for the fuzzy
// pass. Default: 0.90.
func WithFuzzyThreshold(threshold float64) Option {
	return func(s *Suggester) {
		s.fuzzyThreshold = threshold
	}
}

// WithMinPrefixLen sets the shortest prefix that produces candidates.
// Default: 2.
func WithMinPrefixLen(n int) Option {
	return func(s *Suggester) {
		s.minPrefix = n
	}
}

// WithCacheSize sets the LRU memo size. Default: 256.
func WithCacheSize(n int) Option {
	return func(s *Suggester) {
		s.cacheSize = n
	}
}

// Suggester ranks dictionary words against typed prefixes. Safe for
// concurrent use; the cache is the only mutable state and is itself
// synchronized.
type Suggester struct {
	dict           *dictionary.Dictionary
	max            int
	fuzzyThreshold float64
	minPrefix      int
	cacheSize      int

	cache *lru.Cache[string, []Candidate]
}

// New returns a Suggester over dict configured with the supplied options.
func New(dict *dictionary.Dictionary, opts ...Option) (*Suggester, error) {
	s := &Suggester{
		dict:           dict,
		max:            defaultMaxCandidates,
		fuzzyThreshold: defaultFuzzyThreshold,
		minPrefix:      defaultMinPrefixLen,
		cacheSize:      defaultCacheSize,
	}
	for _, o := range opts {
		o(s)
	}

	cache, err := lru.New[string, []Candidate](s.cacheSize)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// For returns ranked candidates for the typed prefix, best first.
func (s *Suggester) For(prefix string) []Candidate {
	prefix = strings.ToLower(prefix)
	if len(prefix) < s.minPrefix {
		return nil
	}

	if cached, ok := s.cache.Get(prefix); ok {
		return cached
	}

	out := s.build(prefix)
	s.cache.Add(prefix, out)
	return out
}

// Best returns the single top candidate for prefix.
func (s *Suggester) Best(prefix string) (string, bool) {
	cands := s.For(prefix)
	if len(cands) == 0 {
		return "", false
	}
	return cands[0].Word, true
}

// Invalidate drops all memoized results. Call after the dictionary
// changes (reload, recorded use).
func (s *Suggester) Invalidate() {
	s.cache.Purge()
}

func (s *Suggester) build(prefix string) []Candidate {
	seen := make(map[string]struct{})
	var out []Candidate

	for _, e := range s.dict.Lookup(prefix) {
		if len(out) >= s.max {
			break
		}
		seen[e.Word] = struct{}{}
		out = append(out, Candidate{Word: e.Word, Score: 1, Source: SourcePrefix})
	}

	if len(out) < s.max {
		out = append(out, s.fuzzy(prefix, seen, s.max-len(out))...)
	}
	return out
}

// fuzzy scans words sharing the prefix's first letter and keeps those
// whose Jaro-Winkler similarity to the prefix clears the threshold.
// First-letter bucketing keeps the scan small; completions where the
// very first keystroke is wrong are not worth offering anyway.
func (s *Suggester) fuzzy(prefix string, seen map[string]struct{}, limit int) []Candidate {
	bucket := s.dict.Lookup(prefix[:1])

	var cands []Candidate
	for _, e := range bucket {
		if _, dup := seen[e.Word]; dup {
			continue
		}
		if strings.HasPrefix(e.Word, prefix) {
			continue
		}
		score := matchr.JaroWinkler(prefix, e.Word, false)
		if score >= s.fuzzyThreshold {
			cands = append(cands, Candidate{Word: e.Word, Score: score, Source: SourceFuzzy})
		}
	}

	// Highest similarity first. The bucket arrives usage-ordered, so a
	// stable sort keeps that as the tiebreak.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}
