//go:build windows

package field

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetGUIThreadInfo         = user32.NewProc("GetGUIThreadInfo")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procIsWindow                 = user32.NewProc("IsWindow")
)

// Win32 messages of the native edit-control protocol.
const (
	wmSetText       = 0x000C
	wmGetText       = 0x000D
	wmGetTextLength = 0x000E

	emGetSel     = 0x00B0
	emSetSel     = 0x00B1
	emReplaceSel = 0x00C2
)

// guiThreadInfo mirrors the Win32 GUITHREADINFO struct.
type guiThreadInfo struct {
	cbSize        uint32
	flags         uint32
	hwndActive    uintptr
	hwndFocus     uintptr
	hwndCapture   uintptr
	hwndMenuOwner uintptr
	hwndMoveSize  uintptr
	hwndCaret     uintptr
	rcCaret       struct{ left, top, right, bottom int32 }
}

// windowsBinding implements Binding over SendMessage to the focused control.
type windowsBinding struct {
	maxRead int
}

// NewBinding returns the platform binding. maxRead bounds Read; pass 0 for
// DefaultMaxRead.
func NewBinding(maxRead int) Binding {
	if maxRead <= 0 {
		maxRead = DefaultMaxRead
	}
	return &windowsBinding{maxRead: maxRead}
}

func (b *windowsBinding) Detect() (*Field, error) {
	fg, _, _ := procGetForegroundWindow.Call()
	if fg == 0 {
		return nil, ErrNoFocusedWindow
	}

	// The foreground window is usually a frame; the control with keyboard
	// focus lives in the foreground thread's GUI state.
	threadID, _, _ := procGetWindowThreadProcessID.Call(fg, 0)

	var gti guiThreadInfo
	gti.cbSize = uint32(unsafe.Sizeof(gti))
	ok, _, _ := procGetGUIThreadInfo.Call(threadID, uintptr(unsafe.Pointer(&gti)))

	hwnd := gti.hwndFocus
	if ok == 0 || hwnd == 0 {
		hwnd = fg
	}

	class, err := className(hwnd)
	if err != nil {
		return nil, err
	}
	if !IsEditableClass(class) {
		return nil, ErrNotATextField
	}

	f := &Field{Handle: Handle(hwnd), Class: class, Valid: true}
	if start, end, err := b.Selection(f); err == nil {
		f.SelStart, f.SelEnd = start, end
	}
	return f, nil
}

func (b *windowsBinding) Read(f *Field) (string, error) {
	hwnd, err := b.handle(f)
	if err != nil {
		return "", err
	}

	length, _, _ := procSendMessageW.Call(hwnd, wmGetTextLength, 0, 0)
	if length == 0 {
		return "", nil
	}
	if int(length) > b.maxRead {
		// Oversized fields are truncated rather than failed.
		length = uintptr(b.maxRead)
	}

	buf := make([]uint16, length+1)
	copied, _, _ := procSendMessageW.Call(hwnd, wmGetText,
		uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])))
	return syscall.UTF16ToString(buf[:copied]), nil
}

func (b *windowsBinding) WriteAll(f *Field, text string) error {
	hwnd, err := b.handle(f)
	if err != nil {
		return err
	}
	utf16, err := syscall.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	procSendMessageW.Call(hwnd, wmSetText, 0, uintptr(unsafe.Pointer(utf16)))
	return nil
}

func (b *windowsBinding) ReplaceSelection(f *Field, text string) error {
	hwnd, err := b.handle(f)
	if err != nil {
		return err
	}
	utf16, err := syscall.UTF16PtrFromString(text)
	if err != nil {
		return err
	}
	// wParam TRUE keeps the edit in the control's undo chain. The result
	// code of EM_REPLACESEL is meaningless on many controls; zero does not
	// signal failure, so no error is derived from it.
	procSendMessageW.Call(hwnd, emReplaceSel, 1, uintptr(unsafe.Pointer(utf16)))
	return nil
}

func (b *windowsBinding) Selection(f *Field) (int, int, error) {
	hwnd, err := b.handle(f)
	if err != nil {
		return 0, 0, err
	}
	var start, end uint32
	procSendMessageW.Call(hwnd, emGetSel,
		uintptr(unsafe.Pointer(&start)), uintptr(unsafe.Pointer(&end)))
	if end < start {
		return 0, 0, ErrInvalidField
	}
	return int(start), int(end), nil
}

func (b *windowsBinding) SetSelection(f *Field, start, end int) error {
	hwnd, err := b.handle(f)
	if err != nil {
		return err
	}
	procSendMessageW.Call(hwnd, emSetSel, uintptr(start), uintptr(end))
	return nil
}

// handle validates f and returns its HWND.
func (b *windowsBinding) handle(f *Field) (uintptr, error) {
	if f == nil || !f.Valid {
		return 0, ErrInvalidField
	}
	alive, _, _ := procIsWindow.Call(uintptr(f.Handle))
	if alive == 0 {
		f.Valid = false
		return 0, ErrInvalidField
	}
	return uintptr(f.Handle), nil
}

func className(hwnd uintptr) (string, error) {
	var buf [256]uint16
	n, _, _ := procGetClassNameW.Call(hwnd,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", ErrNoFocusedWindow
	}
	return syscall.UTF16ToString(buf[:n]), nil
}
