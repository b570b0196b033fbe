// Package dictionary provides the word store behind autocomplete: a base
// word list, the user's own words, and per-word usage counts.
//
// Lookups are prefix searches over a sorted snapshot, so readers never
// block behind a reload. Usage counts feed ranking and survive restarts
// through the frequency store.
package dictionary

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed words.txt
var embeddedWords []byte

// Entry is one dictionary word with its usage count.
type Entry struct {
	Word  string
	Count int
}

// Dictionary holds the merged word set.
type Dictionary struct {
	mu sync.RWMutex

	// words is sorted ascending. Rebuilt on every mutation that adds
	// or removes words; counts update in place.
	words  []string
	counts map[string]int

	// user words are kept separate so a reload of the user list can
	// replace them without touching the base set.
	base []string
	user []string

	freq *FrequencyStore
}

// New builds a dictionary from the base word list at path. An empty path
// selects the embedded list.
func New(path string) (*Dictionary, error) {
	base, err := loadBase(path)
	if err != nil {
		return nil, err
	}

	d := &Dictionary{
		counts: make(map[string]int),
		base:   base,
	}
	d.rebuild()
	return d, nil
}

func loadBase(path string) ([]string, error) {
	var r *bufio.Scanner
	if path == "" {
		r = bufio.NewScanner(bytes.NewReader(embeddedWords))
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open word list: %w", err)
		}
		defer f.Close()
		r = bufio.NewScanner(f)
	}

	var words []string
	for r.Scan() {
		w := strings.ToLower(strings.TrimSpace(r.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		words = append(words, w)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return words, nil
}

// AttachFrequencies connects a persistent frequency store and folds its
// counts into the dictionary.
func (d *Dictionary) AttachFrequencies(fs *FrequencyStore) error {
	counts, err := fs.All()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.freq = fs
	for w, c := range counts {
		d.counts[w] = c
	}
	return nil
}

// SetUserWords replaces the user word set and rebuilds the merged list.
func (d *Dictionary) SetUserWords(words []UserWord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.user = d.user[:0]
	for _, uw := range words {
		w := strings.ToLower(strings.TrimSpace(uw.Word))
		if w == "" {
			continue
		}
		d.user = append(d.user, w)
		if uw.Weight > d.counts[w] {
			d.counts[w] = uw.Weight
		}
	}
	d.rebuild()
}

// rebuild merges base and user words into the sorted, deduplicated
// lookup slice. Caller holds d.mu.
func (d *Dictionary) rebuild() {
	merged := make([]string, 0, len(d.base)+len(d.user))
	merged = append(merged, d.base...)
	merged = append(merged, d.user...)
	sort.Strings(merged)

	d.words = merged[:0]
	var prev string
	for _, w := range merged {
		if w == prev {
			continue
		}
		d.words = append(d.words, w)
		prev = w
	}
}

// Lookup returns every word starting with prefix, most used first, ties
// alphabetical. The prefix itself is excluded; completing a word with
// itself is useless.
func (d *Dictionary) Lookup(prefix string) []Entry {
	prefix = strings.ToLower(prefix)
	if prefix == "" {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	lo := sort.SearchStrings(d.words, prefix)
	var out []Entry
	for i := lo; i < len(d.words) && strings.HasPrefix(d.words[i], prefix); i++ {
		if d.words[i] == prefix {
			continue
		}
		out = append(out, Entry{Word: d.words[i], Count: d.counts[d.words[i]]})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// Contains reports whether word is in the dictionary.
func (d *Dictionary) Contains(word string) bool {
	word = strings.ToLower(word)
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := sort.SearchStrings(d.words, word)
	return i < len(d.words) && d.words[i] == word
}

// RecordUse bumps the usage count for word and persists it when a
// frequency store is attached. Unknown words are counted too; they feed
// ranking once the user adds them.
func (d *Dictionary) RecordUse(word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil
	}

	d.mu.Lock()
	d.counts[word]++
	fs := d.freq
	d.mu.Unlock()

	if fs != nil {
		return fs.Bump(word)
	}
	return nil
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.words)
}
