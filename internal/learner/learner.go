// Package learner remembers which insertion strategy last worked for each
// foreign window class.
//
// The mapping is in-memory only and dies with the process. A strategy is
// recorded only after the sync engine has verified that the write actually
// landed in the foreign field, so a lookup always returns something that
// worked at least once this run, a known-good static default for well-known
// classes, or the generic default.
package learner

import (
	"fmt"
	"strings"
	"sync"
)

// Strategy identifies one concrete technique for writing text into a
// foreign control. It is a closed set; dispatch happens through a lookup
// table, not an interface hierarchy.
type Strategy int

const (
	// ClipboardPaste writes through the shared clipboard and a synthetic
	// Ctrl+V. The most widely honored technique and the generic default.
	ClipboardPaste Strategy = iota

	// KeyTyping synthesizes one input event per character. Slowest, but
	// some controls ignore programmatic text-set calls entirely and only
	// process synthetic input.
	KeyTyping

	// DirectReplace uses the control's native replace-selection request.
	// Fastest when supported; fails silently when not.
	DirectReplace

	// FullRewrite reads the whole field, splices the replacement locally
	// and writes the full text back. Used for control families whose
	// partial-selection APIs are unreliable.
	FullRewrite

	numStrategies = iota
)

// String returns a short stable name for logging.
func (s Strategy) String() string {
	switch s {
	case ClipboardPaste:
		return "clipboard-paste"
	case KeyTyping:
		return "key-typing"
	case DirectReplace:
		return "direct-replace"
	case FullRewrite:
		return "full-rewrite"
	default:
		return "unknown"
	}
}

// Valid reports whether s names a real strategy.
func (s Strategy) Valid() bool {
	return s >= 0 && s < numStrategies
}

// Parse maps a strategy name back to its Strategy value.
func Parse(name string) (Strategy, error) {
	for s := Strategy(0); s < numStrategies; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// DefaultOrder is the priority order tried when nothing has been learned
// for a class and the static table has no entry.
func DefaultOrder() []Strategy {
	return []Strategy{ClipboardPaste, KeyTyping, DirectReplace, FullRewrite}
}

// staticDefaults maps well-known window classes to the strategy that is
// known to behave for that control family. Lowercased prefix match.
var staticDefaults = map[string]Strategy{
	"edit":        DirectReplace,
	"richedit":    FullRewrite,
	"richedit20w": FullRewrite,
	"richedit50w": FullRewrite,
	"notepad":     DirectReplace,
	"chrome_renderwidgethosthwnd": KeyTyping,
	"mozillawindowclass":          KeyTyping,
}

// Learner maps foreign window class names to the strategy that last
// verifiably succeeded for them.
type Learner struct {
	mu      sync.RWMutex
	learned map[string]Strategy
}

// New creates an empty learner.
func New() *Learner {
	return &Learner{learned: make(map[string]Strategy)}
}

// Lookup returns the strategy to try first for the given window class:
// a learned entry if one exists, else a static known-good default, else
// ClipboardPaste.
func (l *Learner) Lookup(className string) Strategy {
	key := normalize(className)

	l.mu.RLock()
	s, ok := l.learned[key]
	l.mu.RUnlock()
	if ok {
		return s
	}

	if s, ok := staticDefaults[key]; ok {
		return s
	}
	// Rich edit controls carry version suffixes ("RICHEDIT50W", "RichEdit20A").
	if strings.HasPrefix(key, "richedit") {
		return FullRewrite
	}
	return ClipboardPaste
}

// Record stores the strategy that verifiably succeeded for className,
// overwriting any previous entry. Recording the same strategy again is a
// no-op. The learner keeps its own copy of the key so callers may reuse
// their class-name storage.
func (l *Learner) Record(className string, s Strategy) {
	if !s.Valid() || className == "" {
		return
	}
	key := strings.Clone(normalize(className))

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.learned[key]; ok && prev == s {
		return
	}
	l.learned[key] = s
}

// Known reports whether a strategy has been learned for className this run.
func (l *Learner) Known(className string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.learned[normalize(className)]
	return ok
}

// Len returns the number of learned entries.
func (l *Learner) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.learned)
}

func normalize(className string) string {
	return strings.ToLower(strings.TrimSpace(className))
}
