// Package hook adapts the OS keyboard hook into plain key-event values.
//
// The adapter decodes each raw event into a KeyEvent and hands it to a
// single handler; it knows nothing about the sync engine, and the engine
// knows nothing about hook registration. The handler runs synchronously on
// the hook thread and must return promptly: a slow hook risks being removed
// by the host OS.
package hook

import (
	"context"
	"errors"
)

// Virtual key codes the engine cares about, mirroring the Win32 values.
const (
	VKBack   = 0x08
	VKTab    = 0x09
	VKReturn = 0x0D
	VKEscape = 0x1B
	VKSpace  = 0x20
	VKLeft   = 0x25
	VKUp     = 0x26
	VKRight  = 0x27
	VKDown   = 0x28
	VKDelete = 0x2E

	VKControl  = 0x11
	VKLControl = 0xA2
	VKRControl = 0xA3
	VKShift    = 0x10
	VKLShift   = 0xA0
	VKRShift   = 0xA1
)

// KeyEvent is one decoded key-down event.
type KeyEvent struct {
	// VK is the platform virtual key code.
	VK uint32

	// Rune is the character this key produces, when IsChar is true.
	Rune rune

	// IsChar reports whether the key produces a printable character under
	// the modifier state at the time of the event.
	IsChar bool

	// Ctrl reports whether a Control key was held. Tracked across
	// down/up transitions by the adapter.
	Ctrl bool
}

// Handler receives decoded key-down events.
type Handler func(KeyEvent)

// Errors returned by hook sources.
var (
	ErrAlreadyRunning = errors.New("hook already running")
	ErrNotAvailable   = errors.New("keyboard hook not available on this platform")
)

// Source delivers key events from the OS to a Handler.
type Source interface {
	// Start installs the hook and begins delivering events. It returns
	// once the hook is installed; delivery continues until Stop or until
	// ctx is cancelled.
	Start(ctx context.Context, h Handler) error

	// Stop removes the hook and waits for the delivery loop to finish.
	Stop() error
}

// New returns the platform key-event source.
func New() Source {
	return newPlatformSource()
}
