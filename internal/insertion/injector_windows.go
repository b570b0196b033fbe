//go:build windows

package insertion

import (
	"errors"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1

	keyeventfKeyUp   = 0x0002
	keyeventfUnicode = 0x0004

	vkBack    = 0x08
	vkControl = 0x11
	vkV       = 0x56
)

// keyboardInput mirrors the Win32 KEYBDINPUT struct.
type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors the Win32 INPUT struct for keyboard events. The trailing
// padding matches the size of the union's largest member (MOUSEINPUT).
type input struct {
	inputType uint32
	_         uint32
	ki        keyboardInput
	_         [8]byte
}

type windowsInjector struct{}

func newPlatformInjector() Injector {
	return &windowsInjector{}
}

func sendInputs(events []input) error {
	if len(events) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		if err != nil && !errors.Is(err, syscall.Errno(0)) {
			return err
		}
		return errors.New("SendInput delivered partial batch")
	}
	return nil
}

func unicodePair(ch uint16) []input {
	down := input{inputType: inputKeyboard, ki: keyboardInput{wScan: ch, dwFlags: keyeventfUnicode}}
	up := input{inputType: inputKeyboard, ki: keyboardInput{wScan: ch, dwFlags: keyeventfUnicode | keyeventfKeyUp}}
	return []input{down, up}
}

func vkPair(vk uint16) []input {
	down := input{inputType: inputKeyboard, ki: keyboardInput{wVk: vk}}
	up := input{inputType: inputKeyboard, ki: keyboardInput{wVk: vk, dwFlags: keyeventfKeyUp}}
	return []input{down, up}
}

func (w *windowsInjector) TypeText(text string, interKey time.Duration) error {
	utf16, err := syscall.UTF16FromString(text)
	if err != nil {
		return err
	}
	// One event pair per UTF-16 unit, sent individually so ordering is
	// strict even if the target is slow draining its input queue.
	for _, ch := range utf16 {
		if ch == 0 {
			break
		}
		if err := sendInputs(unicodePair(ch)); err != nil {
			return err
		}
		if interKey > 0 {
			time.Sleep(interKey)
		}
	}
	return nil
}

func (w *windowsInjector) Backspace(n int) error {
	for i := 0; i < n; i++ {
		if err := sendInputs(vkPair(vkBack)); err != nil {
			return err
		}
	}
	return nil
}

func (w *windowsInjector) PasteChord() error {
	events := []input{
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vkControl}},
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vkV}},
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vkV, dwFlags: keyeventfKeyUp}},
		{inputType: inputKeyboard, ki: keyboardInput{wVk: vkControl, dwFlags: keyeventfKeyUp}},
	}
	return sendInputs(events)
}
