//go:build windows

package hook

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetCurrentThreadID  = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetCurrentThreadId")
	procGetKeyboardState    = user32.NewProc("GetKeyboardState")
	procToUnicode           = user32.NewProc("ToUnicode")
)

const (
	whKeyboardLL = 13
	hcAction     = 0

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmQuit       = 0x0012
)

// kbdllHookStruct mirrors the Win32 KBDLLHOOKSTRUCT.
type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
}

// windowsSource installs a WH_KEYBOARD_LL hook on a dedicated OS thread
// that runs the required message loop. The hook procedure executes on that
// thread; the handler is invoked there synchronously.
type windowsSource struct {
	mu       sync.Mutex
	running  bool
	handler  Handler
	hookID   uintptr
	threadID uint32
	done     chan struct{}

	ctrlDown bool
}

func newPlatformSource() Source {
	return &windowsSource{}
}

func (s *windowsSource) Start(ctx context.Context, h Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.handler = h
	s.done = make(chan struct{})
	s.mu.Unlock()

	installed := make(chan error, 1)

	go s.messageLoop(installed)

	if err := <-installed; err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}

	// Tear down when the context ends.
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.done:
		}
	}()

	return nil
}

// messageLoop owns the hook for its whole lifetime. Low-level hooks are
// tied to the thread that installed them and require that thread to pump
// messages.
func (s *windowsSource) messageLoop(installed chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	tid, _, _ := procGetCurrentThreadID.Call()
	s.mu.Lock()
	s.threadID = uint32(tid)
	s.mu.Unlock()

	callback := windows.NewCallback(s.hookProc)
	hookID, _, err := procSetWindowsHookExW.Call(whKeyboardLL, callback, 0, 0)
	if hookID == 0 {
		installed <- err
		return
	}
	s.hookID = hookID
	installed <- nil

	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
	}

	procUnhookWindowsHookEx.Call(s.hookID)
	s.hookID = 0
}

func (s *windowsSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	tid := s.threadID
	s.mu.Unlock()

	if tid != 0 {
		procPostThreadMessageW.Call(uintptr(tid), wmQuit, 0, 0)
	}
	<-s.done
	return nil
}

// hookProc is the WH_KEYBOARD_LL procedure. It must always chain to the
// next hook, whatever else happens.
func (s *windowsSource) hookProc(nCode uintptr, wParam uintptr, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		kb := (*kbdllHookStruct)(unsafe.Pointer(lParam))

		switch wParam {
		case wmKeyDown, wmSysKeyDown:
			s.trackModifier(kb.vkCode, true)
			s.deliver(kb)
		case wmKeyUp, wmSysKeyUp:
			s.trackModifier(kb.vkCode, false)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
	return ret
}

func (s *windowsSource) trackModifier(vk uint32, down bool) {
	switch vk {
	case VKControl, VKLControl, VKRControl:
		s.ctrlDown = down
	}
}

func (s *windowsSource) deliver(kb *kbdllHookStruct) {
	s.mu.Lock()
	h := s.handler
	running := s.running
	s.mu.Unlock()
	if !running || h == nil {
		return
	}

	ev := KeyEvent{VK: kb.vkCode, Ctrl: s.ctrlDown}
	if r, ok := translateKey(kb.vkCode, kb.scanCode); ok {
		ev.Rune = r
		ev.IsChar = true
	}
	h(ev)
}

// translateKey converts a virtual key to the character it produces under
// the current keyboard state, using the layout-aware ToUnicode call.
func translateKey(vk, scanCode uint32) (rune, bool) {
	var state [256]byte
	ret, _, _ := procGetKeyboardState.Call(uintptr(unsafe.Pointer(&state[0])))
	if ret == 0 {
		return 0, false
	}

	var out [4]uint16
	n, _, _ := procToUnicode.Call(
		uintptr(vk),
		uintptr(scanCode),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&out[0])),
		uintptr(len(out)),
		0,
	)
	// Dead keys report negative; multi-char expansions are not characters
	// we model.
	if int32(n) != 1 {
		return 0, false
	}
	r := rune(out[0])
	if r < 0x20 || r == 0x7F {
		return 0, false
	}
	return r, true
}
