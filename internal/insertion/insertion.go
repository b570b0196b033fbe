// Package insertion implements the techniques for writing text into a
// foreign control.
//
// No technique is universally reliable: some controls honor the native
// replace-selection request, some only process synthetic input, some need
// the clipboard, and some need their whole text rewritten. Each technique
// is an Executor behind a common interface; the sync engine picks the
// order, verifies outcomes and falls back. An Executor reporting nil only
// means the underlying requests were delivered, not that the control
// honored them.
package insertion

import (
	"errors"
	"fmt"
	"time"

	"sysinput/internal/clipboard"
	"sysinput/internal/field"
	"sysinput/internal/learner"
)

// Errors surfaced by executors. ErrClipboardHeld signals the engine to
// degrade to a non-clipboard strategy.
var (
	ErrClipboardHeld = errors.New("clipboard held by another process")
	ErrNoSpan        = errors.New("no target span")
)

// Request describes one replacement: substitute Text for the half-open
// [SpanStart, SpanEnd) character range of the bound field. Text already
// carries the trailing separator when one is wanted.
type Request struct {
	Field     *field.Field
	SpanStart int
	SpanEnd   int
	Text      string
}

func (r Request) validate() error {
	if r.Field == nil || !r.Field.Valid {
		return field.ErrInvalidField
	}
	if r.SpanStart < 0 || r.SpanEnd < r.SpanStart {
		return ErrNoSpan
	}
	return nil
}

// Executor performs one insertion technique.
type Executor interface {
	// Strategy names the technique this executor implements.
	Strategy() learner.Strategy

	// Apply performs the replacement. A nil return is best-effort
	// success; the caller must verify by re-reading the field.
	Apply(req Request) error
}

// Delays bounds the intentional waits inside executors. All waits are
// small fixed bounds, never wall-clock timeouts: the hook callback that
// ultimately drives us must return promptly.
type Delays struct {
	// InterKey is the pause between synthetic key events.
	InterKey time.Duration

	// PasteSettle is the pause after sending the paste chord, giving the
	// target process time to consume the clipboard.
	PasteSettle time.Duration
}

// DefaultDelays returns the empirically safe defaults.
func DefaultDelays() Delays {
	return Delays{
		InterKey:    2 * time.Millisecond,
		PasteSettle: 15 * time.Millisecond,
	}
}

// Table builds the dispatch table mapping every strategy to its executor.
func Table(b field.Binding, acc clipboard.Accessor, inj Injector, d Delays) map[learner.Strategy]Executor {
	return map[learner.Strategy]Executor{
		learner.ClipboardPaste: &pasteExecutor{binding: b, acc: acc, inj: inj, delays: d},
		learner.KeyTyping:      &typingExecutor{binding: b, inj: inj, delays: d},
		learner.DirectReplace:  &directExecutor{binding: b},
		learner.FullRewrite:    &rewriteExecutor{binding: b},
	}
}

// pasteExecutor writes through the shared clipboard and a synthetic paste
// chord. The clipboard mutation runs entirely inside a Transaction so the
// user's payload survives every outcome.
type pasteExecutor struct {
	binding field.Binding
	acc     clipboard.Accessor
	inj     Injector
	delays  Delays
}

func (e *pasteExecutor) Strategy() learner.Strategy { return learner.ClipboardPaste }

func (e *pasteExecutor) Apply(req Request) error {
	if err := req.validate(); err != nil {
		return err
	}

	tx := clipboard.Begin(e.acc)
	if !tx.Acquired() {
		return ErrClipboardHeld
	}
	defer tx.Restore()

	if err := e.binding.SetSelection(req.Field, req.SpanStart, req.SpanEnd); err != nil {
		return fmt.Errorf("select span: %w", err)
	}
	if err := tx.Set(req.Text); err != nil {
		return fmt.Errorf("stage clipboard: %w", err)
	}
	if err := e.inj.PasteChord(); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}
	// The target consumes the clipboard asynchronously; restoring too
	// early would paste the user's old payload instead.
	time.Sleep(e.delays.PasteSettle)
	return nil
}

// typingExecutor synthesizes the replacement one key event at a time.
// Characters must be delivered strictly in order; this path exists because
// some controls ignore programmatic text-set calls but do process input.
type typingExecutor struct {
	binding field.Binding
	inj     Injector
	delays  Delays
}

func (e *typingExecutor) Strategy() learner.Strategy { return learner.KeyTyping }

func (e *typingExecutor) Apply(req Request) error {
	if err := req.validate(); err != nil {
		return err
	}

	if err := e.binding.SetSelection(req.Field, req.SpanStart, req.SpanEnd); err != nil {
		return fmt.Errorf("select span: %w", err)
	}
	// One backspace collapses the selection; on controls that ignored the
	// selection it deletes a single character of the stale word, which the
	// verification pass will catch.
	if req.SpanEnd > req.SpanStart {
		if err := e.inj.Backspace(1); err != nil {
			return fmt.Errorf("clear span: %w", err)
		}
		time.Sleep(e.delays.InterKey)
	}
	if err := e.inj.TypeText(req.Text, e.delays.InterKey); err != nil {
		return fmt.Errorf("type text: %w", err)
	}
	return nil
}

// directExecutor uses the control's native replace-selection request.
// Fastest when supported. Its failure mode is silent: the control reports
// a zero result rather than an error, so Apply returning nil proves
// nothing and the caller always verifies.
type directExecutor struct {
	binding field.Binding
}

func (e *directExecutor) Strategy() learner.Strategy { return learner.DirectReplace }

func (e *directExecutor) Apply(req Request) error {
	if err := req.validate(); err != nil {
		return err
	}
	if err := e.binding.SetSelection(req.Field, req.SpanStart, req.SpanEnd); err != nil {
		return fmt.Errorf("select span: %w", err)
	}
	if err := e.binding.ReplaceSelection(req.Field, req.Text); err != nil {
		return fmt.Errorf("replace selection: %w", err)
	}
	return nil
}

// rewriteExecutor reads the whole field, splices the replacement locally
// and writes the full text back. The override path for control families
// whose partial-selection APIs are unreliable.
type rewriteExecutor struct {
	binding field.Binding
}

func (e *rewriteExecutor) Strategy() learner.Strategy { return learner.FullRewrite }

func (e *rewriteExecutor) Apply(req Request) error {
	if err := req.validate(); err != nil {
		return err
	}

	current, err := e.binding.Read(req.Field)
	if err != nil {
		return fmt.Errorf("read field: %w", err)
	}

	start, end := req.SpanStart, req.SpanEnd
	if start > len(current) {
		start = len(current)
	}
	if end > len(current) {
		end = len(current)
	}
	rewritten := current[:start] + req.Text + current[end:]

	if err := e.binding.WriteAll(req.Field, rewritten); err != nil {
		return fmt.Errorf("write field: %w", err)
	}
	// Park the caret where the native protocol would leave it: at the end
	// of the inserted text.
	caret := start + len(req.Text)
	if err := e.binding.SetSelection(req.Field, caret, caret); err != nil {
		return fmt.Errorf("restore caret: %w", err)
	}
	return nil
}
