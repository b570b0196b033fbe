//go:build !windows

package field

// stubBinding is the non-Windows placeholder. Detection always reports no
// focused window; the sync engine treats that as "no active field" and
// stays idle.
type stubBinding struct{}

// NewBinding returns the platform binding. On non-Windows platforms there
// is no foreign-control protocol to wrap; the stub keeps the daemon
// buildable and the core testable.
func NewBinding(maxRead int) Binding {
	return &stubBinding{}
}

func (s *stubBinding) Detect() (*Field, error) {
	return nil, ErrNoFocusedWindow
}

func (s *stubBinding) Read(f *Field) (string, error) {
	return "", ErrInvalidField
}

func (s *stubBinding) WriteAll(f *Field, text string) error {
	return ErrInvalidField
}

func (s *stubBinding) ReplaceSelection(f *Field, text string) error {
	return ErrInvalidField
}

func (s *stubBinding) Selection(f *Field) (int, int, error) {
	return 0, 0, ErrInvalidField
}

func (s *stubBinding) SetSelection(f *Field, start, end int) error {
	return ErrInvalidField
}
