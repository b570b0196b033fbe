package insertion

import (
	"strings"
	"testing"
	"time"

	"sysinput/internal/clipboard"
	"sysinput/internal/field"
	"sysinput/internal/learner"
)

// =============================================================================
// Fakes: an in-memory edit control, clipboard and injector wired together
// the way a real target application would be.
// =============================================================================

type fakeControl struct {
	text     string
	selStart int
	selEnd   int

	ignoreSetSelection bool
	ignoreReplace      bool // silent DirectReplace failure
	failRead           bool
}

func (c *fakeControl) replaceSelection(text string) {
	s, e := c.selStart, c.selEnd
	if s > len(c.text) {
		s = len(c.text)
	}
	if e > len(c.text) {
		e = len(c.text)
	}
	c.text = c.text[:s] + text + c.text[e:]
	caret := s + len(text)
	c.selStart, c.selEnd = caret, caret
}

type fakeBinding struct {
	ctrl *fakeControl
}

func (b *fakeBinding) Detect() (*field.Field, error) {
	return &field.Field{Handle: 1, Class: "Edit", Valid: true}, nil
}

func (b *fakeBinding) Read(f *field.Field) (string, error) {
	if b.ctrl.failRead {
		return "", field.ErrInvalidField
	}
	return b.ctrl.text, nil
}

func (b *fakeBinding) WriteAll(f *field.Field, text string) error {
	b.ctrl.text = text
	return nil
}

func (b *fakeBinding) ReplaceSelection(f *field.Field, text string) error {
	if b.ctrl.ignoreReplace {
		return nil // silent: request delivered, control did nothing
	}
	b.ctrl.replaceSelection(text)
	return nil
}

func (b *fakeBinding) Selection(f *field.Field) (int, int, error) {
	return b.ctrl.selStart, b.ctrl.selEnd, nil
}

func (b *fakeBinding) SetSelection(f *field.Field, start, end int) error {
	if b.ctrl.ignoreSetSelection {
		return nil
	}
	b.ctrl.selStart, b.ctrl.selEnd = start, end
	return nil
}

type fakeClipboard struct {
	payload string
	held    bool
}

func (f *fakeClipboard) Get() (string, error) {
	if f.held {
		return "", clipboard.ErrUnavailable
	}
	return f.payload, nil
}

func (f *fakeClipboard) Set(text string) error {
	if f.held {
		return clipboard.ErrUnavailable
	}
	f.payload = text
	return nil
}

func (f *fakeClipboard) Clear() error {
	f.payload = ""
	return nil
}

// fakeInjector applies synthetic input directly to the fake control.
type fakeInjector struct {
	ctrl *fakeClipboard
	tgt  *fakeControl

	typed []string
}

func (i *fakeInjector) TypeText(text string, interKey time.Duration) error {
	// Deliver character by character, as the real injector does.
	for _, r := range text {
		i.tgt.replaceSelection(string(r))
		i.typed = append(i.typed, string(r))
	}
	return nil
}

func (i *fakeInjector) Backspace(n int) error {
	for j := 0; j < n; j++ {
		if i.tgt.selStart != i.tgt.selEnd {
			i.tgt.replaceSelection("")
			continue
		}
		if i.tgt.selStart > 0 {
			i.tgt.selStart--
			i.tgt.replaceSelection("")
		}
	}
	return nil
}

func (i *fakeInjector) PasteChord() error {
	i.tgt.replaceSelection(i.ctrl.payload)
	return nil
}

func testField() *field.Field {
	return &field.Field{Handle: 1, Class: "Edit", Valid: true}
}

func newFixture(text string) (*fakeControl, *fakeBinding, *fakeClipboard, *fakeInjector, map[learner.Strategy]Executor) {
	ctrl := &fakeControl{text: text}
	binding := &fakeBinding{ctrl: ctrl}
	clip := &fakeClipboard{payload: "user clipboard"}
	inj := &fakeInjector{ctrl: clip, tgt: ctrl}
	table := Table(binding, clip, inj, Delays{}) // zero delays in tests
	return ctrl, binding, clip, inj, table
}

// =============================================================================
// Executor behavior
// =============================================================================

func TestDirectReplaceExecutor(t *testing.T) {
	ctrl, _, _, _, table := newFixture("typing hel here")

	req := Request{Field: testField(), SpanStart: 7, SpanEnd: 10, Text: "hello "}
	if err := table[learner.DirectReplace].Apply(req); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ctrl.text != "typing hello  here" {
		t.Errorf("text = %q", ctrl.text)
	}
	// Caret consumed the selection and sits at the end of the insert.
	if ctrl.selStart != 13 || ctrl.selEnd != 13 {
		t.Errorf("caret = [%d,%d), want [13,13)", ctrl.selStart, ctrl.selEnd)
	}
}

func TestDirectReplaceSilentFailureReturnsNil(t *testing.T) {
	ctrl, _, _, _, table := newFixture("abc")
	ctrl.ignoreReplace = true

	req := Request{Field: testField(), SpanStart: 0, SpanEnd: 3, Text: "xyz"}
	if err := table[learner.DirectReplace].Apply(req); err != nil {
		t.Fatalf("Apply should report best-effort success, got %v", err)
	}
	if ctrl.text != "abc" {
		t.Errorf("text = %q, control should have ignored the request", ctrl.text)
	}
}

func TestClipboardPasteExecutor(t *testing.T) {
	ctrl, _, clip, _, table := newFixture("say hel now")

	req := Request{Field: testField(), SpanStart: 4, SpanEnd: 7, Text: "hello "}
	if err := table[learner.ClipboardPaste].Apply(req); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ctrl.text != "say hello  now" {
		t.Errorf("text = %q", ctrl.text)
	}
	// The user's clipboard is restored after the transaction.
	if clip.payload != "user clipboard" {
		t.Errorf("clipboard = %q, want restored payload", clip.payload)
	}
}

func TestClipboardPasteHeldClipboard(t *testing.T) {
	ctrl, _, clip, _, table := newFixture("say hel now")
	clip.held = true

	req := Request{Field: testField(), SpanStart: 4, SpanEnd: 7, Text: "hello "}
	err := table[learner.ClipboardPaste].Apply(req)
	if err != ErrClipboardHeld {
		t.Fatalf("Apply = %v, want ErrClipboardHeld", err)
	}
	if ctrl.text != "say hel now" {
		t.Errorf("text = %q, must be untouched", ctrl.text)
	}
}

func TestKeyTypingExecutor(t *testing.T) {
	ctrl, _, _, inj, table := newFixture("go hel end")

	req := Request{Field: testField(), SpanStart: 3, SpanEnd: 6, Text: "hello "}
	if err := table[learner.KeyTyping].Apply(req); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ctrl.text != "go hello  end" {
		t.Errorf("text = %q", ctrl.text)
	}
	// Strict per-character ordering.
	if got := strings.Join(inj.typed, ""); got != "hello " {
		t.Errorf("typed sequence = %q, want %q", got, "hello ")
	}
}

func TestFullRewriteExecutor(t *testing.T) {
	ctrl, _, _, _, table := newFixture("one thr four")

	req := Request{Field: testField(), SpanStart: 4, SpanEnd: 7, Text: "three "}
	if err := table[learner.FullRewrite].Apply(req); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ctrl.text != "one three  four" {
		t.Errorf("text = %q", ctrl.text)
	}
	if ctrl.selStart != 10 || ctrl.selEnd != 10 {
		t.Errorf("caret = [%d,%d), want [10,10)", ctrl.selStart, ctrl.selEnd)
	}
}

func TestFullRewriteClampsStaleSpan(t *testing.T) {
	ctrl, _, _, _, table := newFixture("short")

	// Span derived from a stale read, beyond the current text.
	req := Request{Field: testField(), SpanStart: 10, SpanEnd: 20, Text: "x"}
	if err := table[learner.FullRewrite].Apply(req); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if ctrl.text != "shortx" {
		t.Errorf("text = %q", ctrl.text)
	}
}

func TestRequestValidation(t *testing.T) {
	_, _, _, _, table := newFixture("abc")

	bad := []Request{
		{Field: nil, SpanStart: 0, SpanEnd: 1, Text: "x"},
		{Field: &field.Field{Valid: false}, SpanStart: 0, SpanEnd: 1, Text: "x"},
		{Field: testField(), SpanStart: -1, SpanEnd: 1, Text: "x"},
		{Field: testField(), SpanStart: 3, SpanEnd: 1, Text: "x"},
	}
	for i, req := range bad {
		for _, ex := range table {
			if err := ex.Apply(req); err == nil {
				t.Errorf("case %d: %v accepted invalid request", i, ex.Strategy())
			}
		}
	}
}

func TestTableCoversAllStrategies(t *testing.T) {
	_, _, _, _, table := newFixture("")
	for _, s := range learner.DefaultOrder() {
		ex, ok := table[s]
		if !ok {
			t.Errorf("no executor for %v", s)
			continue
		}
		if ex.Strategy() != s {
			t.Errorf("executor under key %v reports %v", s, ex.Strategy())
		}
	}
}
