//go:build !windows

package hook

import "context"

// stubSource is the non-Windows placeholder; system-wide key hooks are a
// Windows feature here.
type stubSource struct{}

func newPlatformSource() Source {
	return &stubSource{}
}

func (s *stubSource) Start(ctx context.Context, h Handler) error {
	return ErrNotAvailable
}

func (s *stubSource) Stop() error {
	return nil
}
