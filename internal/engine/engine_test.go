package engine

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sysinput/internal/buffer"
	"sysinput/internal/field"
	"sysinput/internal/hook"
	"sysinput/internal/insertion"
	"sysinput/internal/learner"
)

// =============================================================================
// Fake foreign world: one focused control plus configurable executors
// =============================================================================

type fakeWorld struct {
	text  string
	caret int

	class     string
	handle    field.Handle
	detectErr error
	readErr   error
}

func (w *fakeWorld) splice(start, end int, text string) {
	if start > len(w.text) {
		start = len(w.text)
	}
	if end > len(w.text) {
		end = len(w.text)
	}
	w.text = w.text[:start] + text + w.text[end:]
	w.caret = start + len(text)
}

type fakeBinding struct {
	w       *fakeWorld
	detects int
}

func (b *fakeBinding) Detect() (*field.Field, error) {
	b.detects++
	if b.w.detectErr != nil {
		return nil, b.w.detectErr
	}
	return &field.Field{Handle: b.w.handle, Class: b.w.class, Valid: true}, nil
}

func (b *fakeBinding) Read(f *field.Field) (string, error) {
	if b.w.readErr != nil {
		return "", b.w.readErr
	}
	return b.w.text, nil
}

func (b *fakeBinding) WriteAll(f *field.Field, text string) error {
	b.w.text = text
	return nil
}

func (b *fakeBinding) ReplaceSelection(f *field.Field, text string) error {
	b.w.splice(b.w.caret, b.w.caret, text)
	return nil
}

func (b *fakeBinding) Selection(f *field.Field) (int, int, error) {
	return b.w.caret, b.w.caret, nil
}

func (b *fakeBinding) SetSelection(f *field.Field, start, end int) error {
	b.w.caret = start
	return nil
}

// fakeExec is an executor with a scripted outcome.
type fakeExec struct {
	strat  learner.Strategy
	w      *fakeWorld
	err    error // returned without touching the control
	silent bool  // report success but change nothing
	calls  int
}

func (f *fakeExec) Strategy() learner.Strategy { return f.strat }

func (f *fakeExec) Apply(req insertion.Request) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.silent {
		return nil
	}
	f.w.splice(req.SpanStart, req.SpanEnd, req.Text)
	return nil
}

type fixture struct {
	world   *fakeWorld
	binding *fakeBinding
	learn   *learner.Learner
	execs   map[learner.Strategy]*fakeExec
	eng     *Engine
}

func newFixture(t *testing.T, text string, class string) *fixture {
	t.Helper()
	w := &fakeWorld{text: text, caret: len(text), class: class, handle: 42}
	b := &fakeBinding{w: w}
	l := learner.New()

	execs := make(map[learner.Strategy]*fakeExec)
	table := make(map[learner.Strategy]insertion.Executor)
	for _, s := range learner.DefaultOrder() {
		fe := &fakeExec{strat: s, w: w}
		execs[s] = fe
		table[s] = fe
	}

	cfg := DefaultConfig()
	cfg.RetryDelay = 0
	cfg.RecheckDelay = 0

	eng := New(slog.New(slog.DiscardHandler), buffer.New(buffer.DefaultCapacity),
		b, l, table, DefaultVerifier(), cfg)
	return &fixture{world: w, binding: b, learn: l, execs: execs, eng: eng}
}

func typeString(eng *Engine, s string) {
	for _, r := range s {
		eng.HandleKey(hook.KeyEvent{VK: uint32(r), Rune: r, IsChar: true})
	}
}

// =============================================================================
// State machine and binding
// =============================================================================

func TestRebindLoadsFieldContent(t *testing.T) {
	fx := newFixture(t, "existing text ", "Edit")
	if err := fx.eng.Rebind(); err != nil {
		t.Fatalf("Rebind failed: %v", err)
	}
	if fx.eng.State() != StateFieldBound {
		t.Errorf("state = %v, want FieldBound", fx.eng.State())
	}
	if got := fx.eng.Buffer().Content(); got != "existing text " {
		t.Errorf("model content = %q", got)
	}
}

func TestRebindDetectionFailureDegrades(t *testing.T) {
	fx := newFixture(t, "", "Edit")
	fx.world.detectErr = field.ErrNotATextField

	if err := fx.eng.Rebind(); err != ErrNoField {
		t.Fatalf("Rebind = %v, want ErrNoField", err)
	}
	if fx.eng.State() != StateIdle {
		t.Errorf("state = %v, want Idle", fx.eng.State())
	}
	if fx.eng.Field() != nil {
		t.Error("field should be nil after failed detection")
	}
}

func TestResyncTruncatesOversizedField(t *testing.T) {
	fx := newFixture(t, strings.Repeat("a", 6000), "Edit")
	// 6000 chars into a 4096 model: truncated, no error, run continues.
	if err := fx.eng.Rebind(); err != nil {
		t.Fatalf("Rebind failed: %v", err)
	}
	if got := fx.eng.Buffer().Len(); got != buffer.DefaultCapacity {
		t.Errorf("model len = %d, want %d", got, buffer.DefaultCapacity)
	}
}

func TestHandleKeyBuildsWord(t *testing.T) {
	fx := newFixture(t, "", "Edit")
	fx.eng.Rebind()

	typeString(fx.eng, "hel")
	if got := fx.eng.CurrentWord(); got != "hel" {
		t.Errorf("CurrentWord() = %q, want %q", got, "hel")
	}

	fx.eng.HandleKey(hook.KeyEvent{VK: hook.VKBack})
	if got := fx.eng.CurrentWord(); got != "he" {
		t.Errorf("CurrentWord() after backspace = %q, want %q", got, "he")
	}
}

func TestHandleKeyIgnoresCtrlChords(t *testing.T) {
	fx := newFixture(t, "", "Edit")
	fx.eng.Rebind()

	fx.eng.HandleKey(hook.KeyEvent{VK: 'V', Rune: 'v', IsChar: true, Ctrl: true})
	if fx.eng.Buffer().Len() != 0 {
		t.Error("Ctrl chord must not reach the model")
	}

	// The chord may have changed the field; the next focus signal resyncs.
	fx.world.text = "pasted content "
	fx.eng.HandleKey(hook.KeyEvent{VK: hook.VKTab})
	if got := fx.eng.Buffer().Content(); got != "pasted content " {
		t.Errorf("model after resync = %q", got)
	}
}

func TestHandleKeyRecoversModelErrorsInPlace(t *testing.T) {
	fx := newFixture(t, "", "Edit")
	fx.eng.Rebind()

	// Backspace on empty model: ignored, prior state kept.
	fx.eng.HandleKey(hook.KeyEvent{VK: hook.VKBack})
	// Wide rune: ignored.
	fx.eng.HandleKey(hook.KeyEvent{VK: 0, Rune: 'é', IsChar: true})
	if fx.eng.Buffer().Len() != 0 {
		t.Error("model must be unchanged after recovered errors")
	}

	typeString(fx.eng, "ok")
	if got := fx.eng.Buffer().Content(); got != "ok" {
		t.Errorf("content = %q, want %q", got, "ok")
	}
}

// =============================================================================
// Suggestion acceptance and the strategy chain
// =============================================================================

func TestAcceptSuggestionHappyPath(t *testing.T) {
	fx := newFixture(t, "typing hel", "Edit")
	fx.eng.Rebind()

	if err := fx.eng.AcceptSuggestion("hello"); err != nil {
		t.Fatalf("AcceptSuggestion failed: %v", err)
	}
	if fx.world.text != "typing hello " {
		t.Errorf("field text = %q", fx.world.text)
	}
	if got := fx.eng.Buffer().Content(); got != "typing hello " {
		t.Errorf("model content = %q", got)
	}
	if fx.eng.State() != StateIdle {
		t.Errorf("state = %v, want Idle after verified sync", fx.eng.State())
	}
	// "Edit" statically prefers DirectReplace; success is recorded.
	if got := fx.learn.Lookup("Edit"); got != learner.DirectReplace {
		t.Errorf("learned strategy = %v, want DirectReplace", got)
	}
	if fx.execs[learner.DirectReplace].calls != 1 {
		t.Errorf("DirectReplace calls = %d, want 1", fx.execs[learner.DirectReplace].calls)
	}
}

func TestAcceptSuggestionFallsBackAndLearns(t *testing.T) {
	// Unknown class defaults to ClipboardPaste; make it fail so the chain
	// falls through to KeyTyping.
	fx := newFixture(t, "say hel", "QuirkyApp")
	fx.eng.Rebind()
	fx.execs[learner.ClipboardPaste].err = insertion.ErrClipboardHeld

	if err := fx.eng.AcceptSuggestion("hello"); err != nil {
		t.Fatalf("AcceptSuggestion failed: %v", err)
	}
	if fx.world.text != "say hello " {
		t.Errorf("field text = %q", fx.world.text)
	}
	if got := fx.learn.Lookup("QuirkyApp"); got != learner.KeyTyping {
		t.Errorf("learned strategy = %v, want KeyTyping", got)
	}

	// Next acceptance starts with the learned strategy.
	typeString(fx.eng, "wor")
	fx.world.text = "say hello wor"
	fx.world.caret = len(fx.world.text)
	calls := fx.execs[learner.KeyTyping].calls
	if err := fx.eng.AcceptSuggestion("world"); err != nil {
		t.Fatalf("second AcceptSuggestion failed: %v", err)
	}
	if fx.execs[learner.KeyTyping].calls != calls+1 {
		t.Error("learned strategy was not tried first")
	}
	if fx.execs[learner.ClipboardPaste].calls != 1 {
		t.Error("failed strategy should not lead the second acceptance")
	}
}

func TestAcceptSuggestionExhaustionKeepsModelAuthoritative(t *testing.T) {
	fx := newFixture(t, "see hel", "Edit")
	fx.eng.Rebind()
	for _, fe := range fx.execs {
		fe.silent = true // every strategy claims success but does nothing
	}

	err := fx.eng.AcceptSuggestion("hello")
	if err != ErrInsertionFailed {
		t.Fatalf("AcceptSuggestion = %v, want ErrInsertionFailed", err)
	}
	// The field never changed; the local model carries the accepted word.
	if fx.world.text != "see hel" {
		t.Errorf("field text = %q, want unchanged", fx.world.text)
	}
	if got := fx.eng.Buffer().Content(); got != "see hello " {
		t.Errorf("model content = %q, want authoritative %q", got, "see hello ")
	}
	if fx.eng.State() != StateIdle {
		t.Errorf("state = %v, want Idle (degraded, non-fatal)", fx.eng.State())
	}
}

func TestAcceptSuggestionBoundedAttempts(t *testing.T) {
	fx := newFixture(t, "x hel", "Edit")
	fx.eng.Rebind()
	for _, fe := range fx.execs {
		fe.err = errors.New("write refused")
	}

	if err := fx.eng.AcceptSuggestion("hello"); err != ErrInsertionFailed {
		t.Fatalf("AcceptSuggestion = %v, want ErrInsertionFailed", err)
	}
	total := 0
	for _, fe := range fx.execs {
		if fe.calls > 2 {
			t.Errorf("%v tried %d times, want at most 2 (two passes)", fe.strat, fe.calls)
		}
		total += fe.calls
	}
	if total > 2*len(fx.execs) {
		t.Errorf("total attempts = %d, want at most two full passes", total)
	}
}

func TestAcceptSuggestionRequiresWord(t *testing.T) {
	fx := newFixture(t, "done ", "Edit")
	fx.eng.Rebind()

	if err := fx.eng.AcceptSuggestion("hello"); err != ErrNoWord {
		t.Errorf("AcceptSuggestion at non-word boundary = %v, want ErrNoWord", err)
	}
	if err := fx.eng.AcceptSuggestion(""); err != ErrNoWord {
		t.Errorf("AcceptSuggestion(\"\") = %v, want ErrNoWord", err)
	}
}

func TestAcceptSuggestionNoField(t *testing.T) {
	fx := newFixture(t, "hel", "Edit")
	fx.world.detectErr = field.ErrNoFocusedWindow

	if err := fx.eng.AcceptSuggestion("hello"); err != ErrNoField {
		t.Errorf("AcceptSuggestion without field = %v, want ErrNoField", err)
	}
}

func TestDirectReplaceScenarioAtReportedSelection(t *testing.T) {
	// Model holds cursor after "hel"; the field reports the word at
	// [10, 13); replacement lands exactly there and short-text exact
	// verification succeeds.
	fx := newFixture(t, "some text hel", "Edit")
	fx.eng.Rebind()

	if got := fx.eng.CurrentWord(); got != "hel" {
		t.Fatalf("CurrentWord() = %q, want %q", got, "hel")
	}
	if err := fx.eng.AcceptSuggestion("hello"); err != nil {
		t.Fatalf("AcceptSuggestion failed: %v", err)
	}
	if fx.world.text != "some text hello " {
		t.Errorf("field text = %q", fx.world.text)
	}
	if fx.world.caret != len("some text hello ") {
		t.Errorf("caret = %d, want end of inserted text", fx.world.caret)
	}
}

func TestStrategyOrderPutsLearnedFirst(t *testing.T) {
	fx := newFixture(t, "a b", "Editor")
	fx.eng.Rebind()
	fx.learn.Record("Editor", learner.FullRewrite)

	order := fx.eng.strategyOrder()
	if order[0] != learner.FullRewrite {
		t.Errorf("order[0] = %v, want learned FullRewrite", order[0])
	}
	if len(order) != len(learner.DefaultOrder()) {
		t.Errorf("order length = %d, want %d (no duplicates)", len(order), len(learner.DefaultOrder()))
	}
}
