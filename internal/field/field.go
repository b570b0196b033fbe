// Package field detects and talks to the foreign text control that
// currently has input focus.
//
// Everything here is best-effort: the control belongs to another process,
// there is no shared transaction and no read-after-write guarantee. Writes
// may silently do nothing; callers verify outcomes by re-reading. The
// platform surface is kept behind the Binding interface so the sync engine
// is testable without a window system.
package field

import (
	"errors"
	"strings"

	"sysinput/internal/buffer"
)

// Errors returned by detection and field operations.
var (
	ErrNoFocusedWindow = errors.New("no focused window")
	ErrNotATextField   = errors.New("focused control is not a text field")
	ErrInvalidField    = errors.New("field handle is not valid")
)

// DefaultMaxRead bounds Read; text beyond it is truncated, never an error.
const DefaultMaxRead = 8192

// Handle is an opaque reference to a foreign control (an HWND on Windows).
type Handle uintptr

// Field describes the currently bound foreign control.
type Field struct {
	// Handle references the control; meaningless when Valid is false.
	Handle Handle

	// Class is the control's reported window class name.
	Class string

	// SelStart and SelEnd hold the last-known selection as half-open
	// character offsets. Refreshed on focus changes and after every
	// completed sync attempt.
	SelStart int
	SelEnd   int

	// Valid distinguishes "no usable field" from "bound".
	Valid bool
}

// Binding is the platform interface to the focused foreign control.
// It wraps the host's native edit-control protocol bit-exactly; on Windows
// that is WM_GETTEXT / WM_SETTEXT / EM_GETSEL / EM_SETSEL / EM_REPLACESEL.
type Binding interface {
	// Detect inspects the currently focused control. It fails with
	// ErrNoFocusedWindow when nothing has focus and ErrNotATextField when
	// the focused control's class is not a known editable control.
	Detect() (*Field, error)

	// Read returns the control's full text, truncated to the binding's
	// read bound.
	Read(f *Field) (string, error)

	// WriteAll replaces the control's entire text. Best-effort.
	WriteAll(f *Field, text string) error

	// ReplaceSelection replaces the current selection with text. Per the
	// native protocol the selection is consumed and the caret moves to
	// the end of the inserted text. Failure is silent on many controls.
	ReplaceSelection(f *Field, text string) error

	// Selection returns the half-open [start, end) selection offsets.
	Selection(f *Field) (start, end int, err error)

	// SetSelection selects [start, end).
	SetSelection(f *Field, start, end int) error
}

// editableClasses is the set of window classes accepted as text fields.
// Comparison is case-insensitive on the lowercased prefix, since rich edit
// classes carry version suffixes.
var editableClasses = []string{
	"edit",
	"richedit",
	"textbox",
	"scintilla",
	"chrome_renderwidgethosthwnd",
	"mozillawindowclass",
}

// RegisterEditableClasses adds class name prefixes to the editable set.
// Called once at startup, before detection begins; not synchronized.
func RegisterEditableClasses(classes ...string) {
	for _, c := range classes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			editableClasses = append(editableClasses, c)
		}
	}
}

// IsEditableClass reports whether className names a known editable control.
func IsEditableClass(className string) bool {
	c := strings.ToLower(strings.TrimSpace(className))
	if c == "" {
		return false
	}
	for _, known := range editableClasses {
		if strings.HasPrefix(c, known) {
			return true
		}
	}
	return false
}

// EstimateWordSpan derives the current word's [start, end) span from the
// caret offset and the known word length. Used when a control does not
// answer selection queries reliably: the caret sits at the end of the word
// being typed, so the word occupies the wordLen characters before it.
func EstimateWordSpan(caret, wordLen int) (start, end int) {
	if caret < 0 {
		caret = 0
	}
	if wordLen < 0 {
		wordLen = 0
	}
	start = caret - wordLen
	if start < 0 {
		start = 0
	}
	return start, caret
}

// WordSpanAt returns the span of the word containing offset in text,
// using the same word-character set as the local model. Falls back to
// [offset, offset) when offset sits on a non-word boundary.
func WordSpanAt(text string, offset int) (start, end int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	start = offset
	for start > 0 && buffer.IsWordChar(text[start-1]) {
		start--
	}
	end = offset
	for end < len(text) && buffer.IsWordChar(text[end]) {
		end++
	}
	return start, end
}
