// Package engine reconciles the local text model with the focused foreign
// field and drives adaptive insertion.
//
// Everything runs synchronously inside the caller's event callback; the
// engine spawns no goroutines and holds no locks of its own. The foreign
// field is an opaque, best-effort surface: every write is followed by a
// re-read and tiered comparison before it is believed, and the technique
// that verifiably worked is remembered per window class for next time.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sysinput/internal/buffer"
	"sysinput/internal/field"
	"sysinput/internal/hook"
	"sysinput/internal/insertion"
	"sysinput/internal/learner"
)

// State names the engine's position in the sync cycle.
type State int

const (
	StateIdle State = iota
	StateFieldBound
	StateSyncing
	StateVerified
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFieldBound:
		return "field-bound"
	case StateSyncing:
		return "syncing"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Errors returned by sync operations. None of them is fatal: the user can
// keep typing through every one of these.
var (
	ErrNoField         = errors.New("no active field")
	ErrNoWord          = errors.New("no current word at cursor")
	ErrInsertionFailed = errors.New("all insertion strategies exhausted")
)

// Config bounds the engine's waits and retries.
type Config struct {
	// Separator is appended after every accepted suggestion.
	Separator string

	// RetryDelay is the pause before the second strategy pass.
	RetryDelay time.Duration

	// RecheckDelay is the pause before the single verification re-check.
	RecheckDelay time.Duration

	// DetectEvery throttles re-detection while no field is bound: one
	// detection attempt per this many key events.
	DetectEvery int

	// StrategyOrder overrides the default strategy priority when non-empty.
	// The learned preference still jumps to the front.
	StrategyOrder []learner.Strategy
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Separator:    " ",
		RetryDelay:   20 * time.Millisecond,
		RecheckDelay: 10 * time.Millisecond,
		DetectEvery:  16,
	}
}

// maxPasses bounds fallback to two full passes over the strategy list:
// the initial pass and one retry pass after a fresh field re-detection.
const maxPasses = 2

// attempt is the transient bookkeeping for one strategy try within a sync
// operation. Not retained afterward.
type attempt struct {
	strategy learner.Strategy
	elapsed  time.Duration
	applyErr error
	verified bool
}

// Engine is the cross-process synchronization core.
type Engine struct {
	log      *slog.Logger
	buf      *buffer.Buffer
	binding  field.Binding
	learn    *learner.Learner
	execs    map[learner.Strategy]insertion.Executor
	verifier Verifier
	cfg      Config

	state State
	fld   *field.Field

	keysSinceDetect int
	needResync      bool
}

// New creates an engine around the given collaborators.
func New(log *slog.Logger, buf *buffer.Buffer, b field.Binding, l *learner.Learner,
	execs map[learner.Strategy]insertion.Executor, v Verifier, cfg Config) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Separator == "" {
		cfg.Separator = " "
	}
	if cfg.DetectEvery <= 0 {
		cfg.DetectEvery = DefaultConfig().DetectEvery
	}
	return &Engine{
		log:      log,
		buf:      buf,
		binding:  b,
		learn:    l,
		execs:    execs,
		verifier: v,
		cfg:      cfg,
		state:    StateIdle,
	}
}

// State returns the engine's current state.
func (e *Engine) State() State { return e.state }

// Field returns the currently bound field, or nil.
func (e *Engine) Field() *field.Field { return e.fld }

// Buffer returns the local text model.
func (e *Engine) Buffer() *buffer.Buffer { return e.buf }

// CurrentWord returns the word at the model's cursor.
func (e *Engine) CurrentWord() string { return e.buf.CurrentWord() }

// HandleKey feeds one decoded key event through the model. The foreign
// field already received the physical keystroke from the OS, so observed
// typing mutates only the local model; the engine writes to the field only
// for edits it originates (accepted suggestions) and for resyncs.
func (e *Engine) HandleKey(ev hook.KeyEvent) {
	if e.fld == nil || !e.fld.Valid {
		e.keysSinceDetect++
		if e.keysSinceDetect >= e.cfg.DetectEvery {
			e.keysSinceDetect = 0
			e.Rebind()
		}
	}

	if ev.Ctrl {
		// Shortcuts (Ctrl+V, Ctrl+X, ...) can change the field in ways we
		// cannot model; pull the truth on the next focus signal.
		e.needResync = true
		return
	}

	switch {
	case ev.VK == hook.VKTab:
		// Tab is a focus-change signal.
		e.Rebind()
	case ev.VK == hook.VKBack:
		if err := e.buf.DeleteBackward(); err != nil {
			// Nothing adjacent; keep prior state.
			return
		}
	case ev.VK == hook.VKDelete:
		if err := e.buf.DeleteForward(); err != nil {
			return
		}
	case ev.VK == hook.VKLeft:
		e.buf.MoveLeft()
	case ev.VK == hook.VKRight:
		e.buf.MoveRight()
	case ev.VK == hook.VKReturn:
		if err := e.buf.InsertChar('\n'); err != nil {
			e.logModelError("insert newline", err)
		}
	case ev.IsChar:
		if ev.Rune > 0x7F {
			// The model is byte-oriented ASCII; wider runes are ignored
			// the same way invalid bytes are.
			return
		}
		if err := e.buf.InsertChar(byte(ev.Rune)); err != nil {
			// Rejected characters and a full buffer are recovered in
			// place; typing must stay responsive.
			e.logModelError("insert char", err)
		}
	}
}

func (e *Engine) logModelError(op string, err error) {
	if errors.Is(err, buffer.ErrInvalidChar) {
		return // routine for non-ASCII input; not worth logging
	}
	e.log.Debug("model edit ignored", "op", op, "err", err)
}

// Rebind detects the focused control, resyncs the model from its content
// and moves to FieldBound. Detection failure degrades to "no active field"
// and suspends sync until the next successful detection.
func (e *Engine) Rebind() error {
	f, err := e.binding.Detect()
	if err != nil {
		if e.fld != nil {
			e.log.Debug("field unbound", "err", err)
		}
		e.fld = nil
		e.state = StateIdle
		return ErrNoField
	}

	sameField := e.fld != nil && e.fld.Valid && e.fld.Handle == f.Handle
	e.fld = f
	e.state = StateFieldBound

	if !sameField || e.needResync {
		e.resync()
	}
	return nil
}

// resync pulls the field's full content into the model, correcting drift
// from edits made outside this engine's knowledge. Oversized content is
// truncated, never an error.
func (e *Engine) resync() {
	text, err := e.binding.Read(e.fld)
	if err != nil {
		e.log.Debug("resync read failed", "err", err)
		return
	}
	if truncated := e.buf.Load(text); truncated {
		e.log.Warn("field content truncated to model capacity",
			"field_len", len(text), "capacity", e.buf.Cap())
	}
	// Park the model cursor at the field's caret when it is known.
	if start, _, err := e.binding.Selection(e.fld); err == nil && start <= e.buf.Len() {
		e.buf.MoveTo(start)
	}
	e.needResync = false
}

// AcceptSuggestion replaces the word at the cursor with candidate plus the
// configured separator, first in the local model and then in the foreign
// field via the strategy chain. The local model is mutated even when every
// strategy fails: it stays the authoritative view until the next resync.
func (e *Engine) AcceptSuggestion(candidate string) error {
	if candidate == "" {
		return ErrNoWord
	}
	if e.fld == nil || !e.fld.Valid {
		if err := e.Rebind(); err != nil {
			return err
		}
	}

	word := e.buf.CurrentWord()
	if word == "" {
		return ErrNoWord
	}
	replacement := candidate + e.cfg.Separator

	// Model first: the engine's own view is always updated, and stays
	// authoritative if the field refuses every write.
	e.applyToModel(replacement)

	err := e.propagate(word, replacement)
	e.keysSinceDetect = 0
	return err
}

// applyToModel substitutes replacement for the word at the model cursor.
func (e *Engine) applyToModel(replacement string) {
	start, end := e.buf.CurrentWordSpan()
	e.buf.MoveTo(end)
	for i := 0; i < end-start; i++ {
		if e.buf.DeleteBackward() != nil {
			break
		}
	}
	if err := e.buf.InsertString(replacement); err != nil {
		e.logModelError("insert replacement", err)
	}
}

// propagate drives the strategy chain: the learned preference first, then
// the remaining strategies in default order, at most two passes, with a
// short delay and a fresh detection before the second pass.
func (e *Engine) propagate(oldWord, replacement string) error {
	e.state = StateSyncing

	order := e.strategyOrder()
	attempts := make([]attempt, 0, maxPasses*len(order))

	for pass := 0; pass < maxPasses; pass++ {
		if pass > 0 {
			// Tolerate a focus change mid-attempt: wait briefly, then
			// re-detect before burning the final pass.
			time.Sleep(e.cfg.RetryDelay)
			prev := e.fld.Handle
			if err := e.Rebind(); err != nil {
				break
			}
			if e.fld.Handle != prev {
				// Focus moved to a different control; writing the old
				// word's replacement there would corrupt it.
				e.log.Debug("focus changed mid-sync; abandoning retry pass")
				break
			}
		}

		for _, strat := range order {
			ex, ok := e.execs[strat]
			if !ok {
				continue
			}
			a := e.tryStrategy(ex, oldWord, replacement)
			attempts = append(attempts, a)

			if a.applyErr != nil {
				e.log.Debug("strategy attempt failed",
					"strategy", strat.String(), "pass", pass, "err", a.applyErr)
			}
			if a.verified {
				e.learn.Record(e.fld.Class, strat)
				e.refreshSelection()
				e.state = StateVerified
				e.log.Debug("sync verified",
					"strategy", strat.String(),
					"class", e.fld.Class,
					"attempts", len(attempts),
					"elapsed", a.elapsed)
				e.state = StateIdle
				return nil
			}
		}
	}

	e.state = StateFailed
	e.log.Warn("insertion failed; local model is authoritative until next resync",
		"word", oldWord, "attempts", len(attempts))
	e.state = StateIdle
	return ErrInsertionFailed
}

// tryStrategy runs a single executor and verifies the outcome. The target
// span is re-derived from the field immediately before the attempt: a
// prior partially-successful strategy may have shifted offsets, and
// reusing a stale span could double-delete characters.
func (e *Engine) tryStrategy(ex insertion.Executor, oldWord, replacement string) attempt {
	a := attempt{strategy: ex.Strategy()}
	start := time.Now()
	defer func() { a.elapsed = time.Since(start) }()

	before, err := e.binding.Read(e.fld)
	if err != nil {
		a.applyErr = fmt.Errorf("read before attempt: %w", err)
		return a
	}

	spanStart, spanEnd, ok := e.deriveSpan(before, oldWord)
	if !ok {
		// The word is no longer where the field says it is. If a previous
		// partial success already planted the replacement, count that as
		// the outcome instead of writing again and double-deleting.
		if strings.Contains(before, replacement) {
			a.verified = true
		} else {
			a.applyErr = insertion.ErrNoSpan
		}
		return a
	}

	expected := before[:spanStart] + replacement + before[spanEnd:]

	if err := ex.Apply(insertion.Request{
		Field:     e.fld,
		SpanStart: spanStart,
		SpanEnd:   spanEnd,
		Text:      replacement,
	}); err != nil {
		a.applyErr = err
		return a
	}

	a.verified = e.verifyOutcome(expected)
	return a
}

// deriveSpan locates the word to replace in the field's current content,
// preferring the control's selection query and falling back to an estimate
// from the caret and the word length.
func (e *Engine) deriveSpan(content, word string) (start, end int, ok bool) {
	caret := len(content)
	if s, _, err := e.binding.Selection(e.fld); err == nil && s <= len(content) {
		caret = s
	}

	start, end = field.WordSpanAt(content, caret)
	if end > start && content[start:end] == word {
		return start, end, true
	}

	// Some controls answer EM_GETSEL with garbage; estimate from the
	// caret and the known word length instead.
	start, end = field.EstimateWordSpan(caret, len(word))
	if end > start && end <= len(content) && content[start:end] == word {
		return start, end, true
	}
	return 0, 0, false
}

// verifyOutcome re-reads the field and applies the tiered comparison,
// granting exactly one re-check after a short delay before giving up,
// since slow targets commit synthetic input asynchronously.
func (e *Engine) verifyOutcome(expected string) bool {
	actual, err := e.binding.Read(e.fld)
	if err == nil && e.verifier.Verify(expected, actual) {
		return true
	}

	time.Sleep(e.cfg.RecheckDelay)
	actual, err = e.binding.Read(e.fld)
	if err != nil {
		return false
	}
	return e.verifier.Verify(expected, actual)
}

// strategyOrder returns the learner's preference followed by the remaining
// strategies in configured (or default) order.
func (e *Engine) strategyOrder() []learner.Strategy {
	base := e.cfg.StrategyOrder
	if len(base) == 0 {
		base = learner.DefaultOrder()
	}
	preferred := e.learn.Lookup(e.fld.Class)
	order := make([]learner.Strategy, 0, len(base)+1)
	order = append(order, preferred)
	for _, s := range base {
		if s != preferred {
			order = append(order, s)
		}
	}
	return order
}

// refreshSelection updates the bound field's last-known selection after a
// completed sync attempt.
func (e *Engine) refreshSelection() {
	if start, end, err := e.binding.Selection(e.fld); err == nil {
		e.fld.SelStart, e.fld.SelEnd = start, end
	}
}
