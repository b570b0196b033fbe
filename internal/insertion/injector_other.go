//go:build !windows

package insertion

import (
	"errors"
	"time"
)

var errNotAvailable = errors.New("input injection not available on this platform")

type stubInjector struct{}

func newPlatformInjector() Injector {
	return &stubInjector{}
}

func (s *stubInjector) TypeText(text string, interKey time.Duration) error {
	return errNotAvailable
}

func (s *stubInjector) Backspace(n int) error {
	return errNotAvailable
}

func (s *stubInjector) PasteChord() error {
	return errNotAvailable
}
