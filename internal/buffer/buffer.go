// Package buffer implements the local text model: a fixed-capacity gap
// buffer with cursor tracking.
//
// Edits always happen at or near the cursor, so the buffer keeps a movable
// empty region (the gap) at the cursor position. Insert and delete at the
// cursor are amortized O(1); the cost is an explicit flatten step before any
// linear scan (word lookup, export to a foreign field). The flattened view
// is cached and recomputed lazily via a stale flag.
package buffer

import (
	"errors"
)

// DefaultCapacity is the buffer capacity used when none is configured.
const DefaultCapacity = 4096

// bulkThreshold is the insert length above which InsertString switches to
// the single-copy path instead of inserting character by character.
const bulkThreshold = 8

// Errors returned by buffer operations.
var (
	ErrBufferFull      = errors.New("buffer full")
	ErrNothingToDelete = errors.New("nothing to delete")
	ErrInvalidChar     = errors.New("invalid character")
)

// Buffer is a gap buffer over a fixed-capacity byte slice.
//
// Invariants: the cursor offset never exceeds the current length, and the
// length never exceeds the capacity fixed at construction. The gap sits at
// the cursor: text before the cursor lives in data[:gapStart], text after
// it in data[gapEnd:].
type Buffer struct {
	data     []byte
	gapStart int
	gapEnd   int

	line int
	col  int

	stale   bool
	content string
}

// New creates an empty buffer with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		data:   make([]byte, capacity),
		gapEnd: capacity,
	}
}

// Len returns the number of characters currently stored.
func (b *Buffer) Len() int {
	return len(b.data) - (b.gapEnd - b.gapStart)
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Cursor returns the cursor offset in characters from the start.
func (b *Buffer) Cursor() int {
	return b.gapStart
}

// Line returns the zero-based line of the cursor.
func (b *Buffer) Line() int {
	return b.line
}

// Col returns the zero-based column of the cursor within its line.
func (b *Buffer) Col() int {
	return b.col
}

// Reset empties the buffer and moves the cursor to offset zero.
func (b *Buffer) Reset() {
	b.gapStart = 0
	b.gapEnd = len(b.data)
	b.line = 0
	b.col = 0
	b.stale = false
	b.content = ""
}

// validChar reports whether c is accepted: printable ASCII plus tab,
// newline and carriage return. Everything else is rejected so stray
// control bytes from the hook never corrupt the model.
func validChar(c byte) bool {
	if c >= 0x20 && c < 0x7F {
		return true
	}
	return c == '\t' || c == '\n' || c == '\r'
}

// IsWordChar reports whether c belongs to a word: letters, digits,
// underscore, apostrophe.
func IsWordChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '_' || c == '\'':
		return true
	}
	return false
}

// InsertChar inserts a single character at the cursor.
// Returns ErrBufferFull when at capacity and ErrInvalidChar for bytes
// outside the accepted set; the buffer is unchanged on error.
func (b *Buffer) InsertChar(c byte) error {
	if !validChar(c) {
		return ErrInvalidChar
	}
	if b.gapStart == b.gapEnd {
		return ErrBufferFull
	}
	b.data[b.gapStart] = c
	b.gapStart++
	b.advanceCursorPos(c)
	b.stale = true
	return nil
}

// InsertString inserts s at the cursor. The insert is atomic: if s does not
// fit in the remaining capacity, nothing is inserted and ErrBufferFull is
// returned; if s contains an invalid byte, nothing is inserted and
// ErrInvalidChar is returned.
func (b *Buffer) InsertString(s string) error {
	if len(s) == 0 {
		return nil
	}
	if len(s) > b.gapEnd-b.gapStart {
		return ErrBufferFull
	}
	for i := 0; i < len(s); i++ {
		if !validChar(s[i]) {
			return ErrInvalidChar
		}
	}
	if len(s) <= bulkThreshold {
		for i := 0; i < len(s); i++ {
			b.data[b.gapStart] = s[i]
			b.gapStart++
			b.advanceCursorPos(s[i])
		}
	} else {
		// Bulk path: one copy into the gap, then fix up line/col.
		copy(b.data[b.gapStart:], s)
		b.gapStart += len(s)
		for i := 0; i < len(s); i++ {
			b.advanceCursorPos(s[i])
		}
	}
	b.stale = true
	return nil
}

// DeleteBackward removes the character immediately before the cursor.
func (b *Buffer) DeleteBackward() error {
	if b.gapStart == 0 {
		return ErrNothingToDelete
	}
	b.gapStart--
	b.retreatCursorPos()
	b.stale = true
	return nil
}

// DeleteForward removes the character immediately after the cursor.
func (b *Buffer) DeleteForward() error {
	if b.gapEnd == len(b.data) {
		return ErrNothingToDelete
	}
	b.gapEnd++
	b.stale = true
	return nil
}

// MoveLeft moves the cursor one character left. Moving past the start is a
// no-op that reports false.
func (b *Buffer) MoveLeft() bool {
	if b.gapStart == 0 {
		return false
	}
	b.gapStart--
	b.gapEnd--
	b.data[b.gapEnd] = b.data[b.gapStart]
	b.retreatCursorPos()
	return true
}

// MoveRight moves the cursor one character right. Moving past the end is a
// no-op that reports false.
func (b *Buffer) MoveRight() bool {
	if b.gapEnd == len(b.data) {
		return false
	}
	c := b.data[b.gapEnd]
	b.data[b.gapStart] = c
	b.gapStart++
	b.gapEnd++
	b.advanceCursorPos(c)
	return true
}

// MoveTo places the cursor at offset, clamped to [0, Len()].
func (b *Buffer) MoveTo(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > b.Len() {
		offset = b.Len()
	}
	for b.gapStart > offset {
		b.MoveLeft()
	}
	for b.gapStart < offset {
		b.MoveRight()
	}
}

// Content returns the flattened text. The view is cached and only rebuilt
// when an edit has marked it stale.
func (b *Buffer) Content() string {
	if b.stale {
		out := make([]byte, 0, b.Len())
		out = append(out, b.data[:b.gapStart]...)
		out = append(out, b.data[b.gapEnd:]...)
		b.content = string(out)
		b.stale = false
	}
	return b.content
}

// Load replaces the buffer content with s, truncating to capacity, and
// leaves the cursor at the end of the loaded text. It reports whether s was
// truncated. Loading never fails: this is the resync path and must accept
// whatever the foreign field holds.
func (b *Buffer) Load(s string) (truncated bool) {
	b.Reset()
	if len(s) > len(b.data) {
		s = s[:len(b.data)]
		truncated = true
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if !validChar(s[i]) {
			continue
		}
		b.data[n] = s[i]
		b.advanceCursorPos(s[i])
		n++
	}
	b.gapStart = n
	b.stale = true
	return truncated
}

// CurrentWord returns the maximal run of word characters containing the
// cursor, or "" when the cursor sits at a non-word boundary or the buffer
// is empty.
func (b *Buffer) CurrentWord() string {
	start, end := b.CurrentWordSpan()
	if start == end {
		return ""
	}
	return b.Content()[start:end]
}

// CurrentWordSpan returns the half-open [start, end) span of the word
// containing the cursor. When the cursor is not inside or immediately after
// a word, start == end == cursor offset.
func (b *Buffer) CurrentWordSpan() (start, end int) {
	content := b.Content()
	cur := b.gapStart

	start = cur
	for start > 0 && IsWordChar(content[start-1]) {
		start--
	}
	end = cur
	for end < len(content) && IsWordChar(content[end]) {
		end++
	}
	if start == cur && end == cur {
		return cur, cur
	}
	return start, end
}

// advanceCursorPos updates line/col for a character passing left of the gap.
func (b *Buffer) advanceCursorPos(c byte) {
	if c == '\n' {
		b.line++
		b.col = 0
	} else {
		b.col++
	}
}

// retreatCursorPos updates line/col after the cursor moved one char left.
func (b *Buffer) retreatCursorPos() {
	if b.col > 0 {
		b.col--
		return
	}
	if b.line == 0 {
		return
	}
	b.line--
	// Recount the column by scanning back to the previous newline.
	b.col = 0
	for i := b.gapStart - 1; i >= 0 && b.data[i] != '\n'; i-- {
		b.col++
	}
}
