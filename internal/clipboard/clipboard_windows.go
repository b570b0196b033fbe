//go:build windows

package clipboard

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard    = user32.NewProc("OpenClipboard")
	procCloseClipboard   = user32.NewProc("CloseClipboard")
	procGetClipboardData = user32.NewProc("GetClipboardData")
	procSetClipboardData = user32.NewProc("SetClipboardData")
	procEmptyClipboard   = user32.NewProc("EmptyClipboard")

	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

// windowsAccessor implements Accessor over the Win32 clipboard API.
type windowsAccessor struct{}

func newPlatformAccessor() Accessor {
	return &windowsAccessor{}
}

func (w *windowsAccessor) Get() (string, error) {
	ret, _, _ := procOpenClipboard.Call(0)
	if ret == 0 {
		return "", ErrUnavailable
	}
	defer procCloseClipboard.Call()

	handle, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if handle == 0 {
		// No text payload on the clipboard.
		return "", nil
	}

	ptr, _, _ := procGlobalLock.Call(handle)
	if ptr == 0 {
		return "", ErrUnavailable
	}
	defer procGlobalUnlock.Call(handle)

	var out []uint16
	for i := 0; ; i++ {
		ch := *(*uint16)(unsafe.Pointer(ptr + uintptr(i*2)))
		if ch == 0 {
			break
		}
		out = append(out, ch)
	}
	return syscall.UTF16ToString(out), nil
}

func (w *windowsAccessor) Set(text string) error {
	utf16, err := syscall.UTF16FromString(text)
	if err != nil {
		return err
	}

	ret, _, _ := procOpenClipboard.Call(0)
	if ret == 0 {
		return ErrUnavailable
	}
	defer procCloseClipboard.Call()

	procEmptyClipboard.Call()

	size := uintptr(len(utf16) * 2)
	handle, _, _ := procGlobalAlloc.Call(gmemMoveable, size)
	if handle == 0 {
		return ErrUnavailable
	}

	ptr, _, _ := procGlobalLock.Call(handle)
	if ptr == 0 {
		procGlobalFree.Call(handle)
		return ErrUnavailable
	}
	for i, ch := range utf16 {
		*(*uint16)(unsafe.Pointer(ptr + uintptr(i*2))) = ch
	}
	procGlobalUnlock.Call(handle)

	// The system owns the handle after a successful SetClipboardData.
	ret, _, _ = procSetClipboardData.Call(cfUnicodeText, handle)
	if ret == 0 {
		procGlobalFree.Call(handle)
		return ErrUnavailable
	}
	return nil
}

func (w *windowsAccessor) Clear() error {
	ret, _, _ := procOpenClipboard.Call(0)
	if ret == 0 {
		return ErrUnavailable
	}
	defer procCloseClipboard.Call()

	procEmptyClipboard.Call()
	return nil
}
