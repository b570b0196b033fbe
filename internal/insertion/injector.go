package insertion

import "time"

// Injector synthesizes keyboard input in the focused application.
type Injector interface {
	// TypeText sends one key event pair per character of text, in order,
	// pausing interKey between characters.
	TypeText(text string, interKey time.Duration) error

	// Backspace sends n backspace key presses.
	Backspace(n int) error

	// PasteChord sends the platform paste shortcut (Ctrl+V).
	PasteChord() error
}

// NewInjector returns the platform input injector.
func NewInjector() Injector {
	return newPlatformInjector()
}
