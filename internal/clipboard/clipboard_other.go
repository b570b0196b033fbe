//go:build !windows

package clipboard

import "github.com/atotto/clipboard"

// portableAccessor implements Accessor with the atotto/clipboard library,
// which shells out to the platform clipboard tools (pbcopy/pbpaste, xclip,
// xsel, wl-clipboard).
type portableAccessor struct{}

func newPlatformAccessor() Accessor {
	return &portableAccessor{}
}

func (p *portableAccessor) Get() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", ErrUnavailable
	}
	return text, nil
}

func (p *portableAccessor) Set(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return ErrUnavailable
	}
	return nil
}

func (p *portableAccessor) Clear() error {
	return p.Set("")
}
