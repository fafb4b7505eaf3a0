// SPDX-License-Identifier: Unlicense OR MIT

//go:build windows

package app

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/david7a68/plinth/gpu"
	"github.com/david7a68/plinth/internal/debug"
)

type rect struct {
	left, top, right, bottom int32
}

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type msg struct {
	hwnd     windows.Handle
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type point struct {
	x, y int32
}

type minMaxInfo struct {
	ptReserved     point
	ptMaxSize      point
	ptMaxPosition  point
	ptMinTrackSize point
	ptMaxTrackSize point
}

type trackMouseEventStruct struct {
	cbSize      uint32
	dwFlags     uint32
	hwndTrack   windows.Handle
	dwHoverTime uint32
}

type devMode struct {
	dmDeviceName       [32]uint16
	dmSpecVersion      uint16
	dmDriverVersion    uint16
	dmSize             uint16
	dmDriverExtra      uint16
	dmFields           uint32
	dmPosition         [8]byte
	dmDisplayOrient    uint32
	dmDisplayFixedOut  uint32
	dmColor            int16
	dmDuplex           int16
	dmYResolution      int16
	dmTTOption         int16
	dmCollate          int16
	dmFormName         [32]uint16
	dmLogPixels        uint16
	dmBitsPerPel       uint32
	dmPelsWidth        uint32
	dmPelsHeight       uint32
	dmDisplayFlags     uint32
	dmDisplayFrequency uint32
	dmICMMethod        uint32
	dmICMIntent        uint32
	dmMediaType        uint32
	dmDitherType       uint32
	dmReserved1        uint32
	dmReserved2        uint32
	dmPanningWidth     uint32
	dmPanningHeight    uint32
}

const (
	_WM_CLOSE            = 0x0010
	_WM_DESTROY          = 0x0002
	_WM_GETMINMAXINFO    = 0x0024
	_WM_SHOWWINDOW       = 0x0018
	_WM_ENTERSIZEMOVE    = 0x0231
	_WM_EXITSIZEMOVE     = 0x0232
	_WM_WINDOWPOSCHANGED = 0x0047
	_WM_DPICHANGED       = 0x02E0
	_WM_PAINT            = 0x000F
	_WM_MOUSEMOVE        = 0x0200
	_WM_MOUSELEAVE       = 0x02A3
	_WM_LBUTTONDOWN      = 0x0201
	_WM_LBUTTONUP        = 0x0202
	_WM_LBUTTONDBLCLK    = 0x0203
	_WM_RBUTTONDOWN      = 0x0204
	_WM_RBUTTONUP        = 0x0205
	_WM_RBUTTONDBLCLK    = 0x0206
	_WM_MBUTTONDOWN      = 0x0207
	_WM_MBUTTONUP        = 0x0208
	_WM_MBUTTONDBLCLK    = 0x0209
	_WM_MOUSEWHEEL       = 0x020A
	_WM_MOUSEHWHEEL      = 0x020E
	_WM_KEYDOWN          = 0x0100
	_WM_KEYUP            = 0x0101
	_WM_SYSKEYDOWN       = 0x0104
	_WM_SYSKEYUP         = 0x0105

	// Driver requests marshalled onto the event thread.
	_WM_APP        = 0x8000
	_WM_SETTITLE   = _WM_APP + 1
	_WM_SHOWREQ    = _WM_APP + 2
	_WM_REPAINTREQ = _WM_APP + 3
	_WM_DESTROYREQ = _WM_APP + 4

	_WS_OVERLAPPEDWINDOW = 0x00CF0000
	_WS_OVERLAPPED       = 0x00000000
	_WS_CAPTION          = 0x00C00000
	_WS_SYSMENU          = 0x00080000
	_WS_MINIMIZEBOX      = 0x00020000

	_CS_DBLCLKS = 0x0008

	_CW_USEDEFAULT = 0x80000000

	_SW_SHOW = 5
	_SW_HIDE = 0

	_SWP_NOZORDER   = 0x0004
	_SWP_NOACTIVATE = 0x0010

	_USER_DEFAULT_SCREEN_DPI = 96

	_TME_LEAVE = 0x00000002

	_IDC_ARROW = 32512

	_ENUM_CURRENT_SETTINGS = 0xFFFFFFFF

	_WHEEL_DELTA = 120
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterClassExW     = user32.NewProc("RegisterClassExW")
	procCreateWindowExW      = user32.NewProc("CreateWindowExW")
	procDefWindowProcW       = user32.NewProc("DefWindowProcW")
	procDestroyWindow        = user32.NewProc("DestroyWindow")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procTranslateMessage     = user32.NewProc("TranslateMessage")
	procDispatchMessageW     = user32.NewProc("DispatchMessageW")
	procPostMessageW         = user32.NewProc("PostMessageW")
	procPostQuitMessage      = user32.NewProc("PostQuitMessage")
	procShowWindow           = user32.NewProc("ShowWindow")
	procSetWindowTextW       = user32.NewProc("SetWindowTextW")
	procInvalidateRect       = user32.NewProc("InvalidateRect")
	procValidateRect         = user32.NewProc("ValidateRect")
	procGetClientRect        = user32.NewProc("GetClientRect")
	procLoadCursorW          = user32.NewProc("LoadCursorW")
	procTrackMouseEvent      = user32.NewProc("TrackMouseEvent")
	procEnumDisplaySettingsW = user32.NewProc("EnumDisplaySettingsW")
	procGetDpiForWindow      = user32.NewProc("GetDpiForWindow")
	procSetWindowPos         = user32.NewProc("SetWindowPos")
)

var (
	classOnce sync.Once
	classErr  error
	// Window proc dispatch by hwnd; the proc runs on each window's
	// own event thread.
	winMap sync.Map
)

const className = "plinth"

func initWindowClass() error {
	classOnce.Do(func() {
		name, err := windows.UTF16PtrFromString(className)
		if err != nil {
			classErr = err
			return
		}
		cursor, _, _ := procLoadCursorW.Call(0, _IDC_ARROW)
		wc := wndClassEx{
			cbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
			style:         _CS_DBLCLKS,
			lpfnWndProc:   windows.NewCallback(windowProc),
			hInstance:     instanceHandle(),
			hCursor:       windows.Handle(cursor),
			lpszClassName: name,
		}
		atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
		if atom == 0 {
			classErr = fmt.Errorf("app: RegisterClassEx: %w", err)
		}
	})
	return classErr
}

func instanceHandle() windows.Handle {
	h, _ := windows.GetModuleHandle(nil)
	return h
}

// win32Window is the event-thread side of a window. Fields other
// than q and the pending title are owned by the event thread.
type win32Window struct {
	hwnd windows.Handle
	q    *eventQueue

	titleMu sync.Mutex
	title   string

	extent     gpu.Extent
	minSize    gpu.Extent
	maxSize    gpu.Extent
	scale      float32
	inSizeMove bool
	sizing     bool
	cursorIn   bool
	refresh    time.Duration
}

// newPlatformWindow spawns the event thread, which owns the OS
// window for its whole life. The constructor returns once the
// window exists.
func newPlatformWindow(cfg Config, q *eventQueue) (driver, error) {
	w := &win32Window{q: q, extent: cfg.Size, minSize: cfg.MinSize, maxSize: cfg.MaxSize}
	created := make(chan error, 1)
	go w.eventThread(cfg, created)
	if err := <-created; err != nil {
		return nil, err
	}
	return w, nil
}

func (w *win32Window) eventThread(cfg Config, created chan<- error) {
	// The window and its message queue are bound to this thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := initWindowClass(); err != nil {
		created <- err
		return
	}
	style := uintptr(_WS_OVERLAPPEDWINDOW)
	if !cfg.Resizable {
		style = _WS_OVERLAPPED | _WS_CAPTION | _WS_SYSMENU | _WS_MINIMIZEBOX
	}
	clsName, _ := windows.UTF16PtrFromString(className)
	title, _ := windows.UTF16PtrFromString(cfg.Title)
	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(clsName)),
		uintptr(unsafe.Pointer(title)),
		style,
		_CW_USEDEFAULT, _CW_USEDEFAULT,
		uintptr(cfg.Size.Width), uintptr(cfg.Size.Height),
		0, 0,
		uintptr(instanceHandle()),
		0,
	)
	if hwnd == 0 {
		created <- fmt.Errorf("app: CreateWindowEx: %w", err)
		return
	}
	w.hwnd = windows.Handle(hwnd)
	w.refresh = displayRefresh()
	w.scale = dpiScale(w.hwnd)
	winMap.Store(w.hwnd, w)

	w.extent = w.clientExtent()
	w.q.push(CreateEvent{Extent: w.extent})
	if w.scale != 1 {
		// Windows opening on a scaled display learn their factor
		// before the first frame.
		w.q.push(ResizeEvent{Extent: w.extent, DpiScale: w.scale})
	}
	created <- nil

	if cfg.Visible {
		procShowWindow.Call(hwnd, _SW_SHOW)
	}

	var m msg
	for {
		// No hwnd filter: WM_QUIT is a thread message and would be
		// missed otherwise.
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			// The window is gone; WM_DESTROY already ran.
			return
		case 0:
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func windowProc(hwnd windows.Handle, message uint32, wParam, lParam uintptr) uintptr {
	v, ok := winMap.Load(hwnd)
	if !ok {
		return defWindowProc(hwnd, message, wParam, lParam)
	}
	w := v.(*win32Window)
	switch message {
	case _WM_CLOSE:
		w.q.push(CloseRequestEvent{})
		return 0
	case _WM_DESTROY:
		w.q.push(DestroyEvent{})
		w.q.close()
		winMap.Delete(hwnd)
		procPostQuitMessage.Call(0)
		return 0
	case _WM_SHOWWINDOW:
		w.q.push(VisibleEvent{Shown: wParam != 0})
	case _WM_GETMINMAXINFO:
		mmi := (*minMaxInfo)(unsafe.Pointer(lParam))
		if w.minSize.Width > 0 {
			mmi.ptMinTrackSize.x = int32(w.minSize.Width)
		}
		if w.minSize.Height > 0 {
			mmi.ptMinTrackSize.y = int32(w.minSize.Height)
		}
		if w.maxSize.Width > 0 {
			mmi.ptMaxTrackSize.x = int32(w.maxSize.Width)
		}
		if w.maxSize.Height > 0 {
			mmi.ptMaxTrackSize.y = int32(w.maxSize.Height)
		}
		return 0
	case _WM_ENTERSIZEMOVE:
		w.inSizeMove = true
		return 0
	case _WM_EXITSIZEMOVE:
		w.inSizeMove = false
		if w.sizing {
			w.sizing = false
			w.q.push(EndResizeEvent{})
		}
		return 0
	case _WM_WINDOWPOSCHANGED:
		extent := w.clientExtent()
		if extent != w.extent && extent.Width > 0 && extent.Height > 0 {
			w.extent = extent
			if w.inSizeMove && !w.sizing {
				w.sizing = true
				w.q.push(BeginResizeEvent{})
			}
			w.q.push(ResizeEvent{Extent: extent, DpiScale: w.scale})
		}
		// Let DefWindowProc generate WM_SIZE et al for the OS.
	case _WM_DPICHANGED:
		w.scale = float32(wParam&0xffff) / _USER_DEFAULT_SCREEN_DPI
		// Move to the suggested rect so the client area keeps its
		// logical size on the new display.
		r := (*rect)(unsafe.Pointer(lParam))
		procSetWindowPos.Call(uintptr(hwnd), 0,
			uintptr(r.left), uintptr(r.top),
			uintptr(r.right-r.left), uintptr(r.bottom-r.top),
			_SWP_NOZORDER|_SWP_NOACTIVATE)
		w.extent = w.clientExtent()
		w.q.push(ResizeEvent{Extent: w.extent, DpiScale: w.scale})
		return 0
	case _WM_PAINT:
		procValidateRect.Call(uintptr(hwnd), 0)
		w.q.push(RepaintEvent{Timing: PresentTiming{
			Target:  time.Now().Add(w.refresh),
			Refresh: w.refresh,
		}})
		return 0
	case _WM_MOUSEMOVE:
		x, y := coordsFromLParam(lParam)
		if !w.cursorIn {
			w.cursorIn = true
			tme := trackMouseEventStruct{
				cbSize:    uint32(unsafe.Sizeof(trackMouseEventStruct{})),
				dwFlags:   _TME_LEAVE,
				hwndTrack: hwnd,
			}
			procTrackMouseEvent.Call(uintptr(unsafe.Pointer(&tme)))
			w.q.push(PointerEvent{Kind: PointerEnter, X: x, Y: y})
		}
		w.q.push(PointerEvent{Kind: PointerMove, X: x, Y: y})
		return 0
	case _WM_MOUSELEAVE:
		w.cursorIn = false
		w.q.push(PointerEvent{Kind: PointerLeave})
		return 0
	case _WM_LBUTTONDOWN, _WM_RBUTTONDOWN, _WM_MBUTTONDOWN:
		x, y := coordsFromLParam(lParam)
		w.q.push(PointerEvent{Kind: PointerPress, X: x, Y: y, Button: buttonFromMessage(message)})
		return 0
	case _WM_LBUTTONUP, _WM_RBUTTONUP, _WM_MBUTTONUP:
		x, y := coordsFromLParam(lParam)
		w.q.push(PointerEvent{Kind: PointerRelease, X: x, Y: y, Button: buttonFromMessage(message)})
		return 0
	case _WM_LBUTTONDBLCLK, _WM_RBUTTONDBLCLK, _WM_MBUTTONDBLCLK:
		x, y := coordsFromLParam(lParam)
		w.q.push(PointerEvent{Kind: PointerDoubleTap, X: x, Y: y, Button: buttonFromMessage(message)})
		return 0
	case _WM_MOUSEWHEEL:
		w.q.push(PointerEvent{Kind: PointerScroll, ScrollY: wheelDelta(wParam)})
		return 0
	case _WM_MOUSEHWHEEL:
		w.q.push(PointerEvent{Kind: PointerScroll, ScrollX: wheelDelta(wParam)})
		return 0
	case _WM_KEYDOWN, _WM_SYSKEYDOWN:
		w.q.push(KeyEvent{Code: uint32(wParam), Pressed: true})
	case _WM_KEYUP, _WM_SYSKEYUP:
		w.q.push(KeyEvent{Code: uint32(wParam), Pressed: false})
	case _WM_SETTITLE:
		w.titleMu.Lock()
		title := w.title
		w.titleMu.Unlock()
		t, _ := windows.UTF16PtrFromString(title)
		procSetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(t)))
		return 0
	case _WM_SHOWREQ:
		mode := uintptr(_SW_HIDE)
		if wParam != 0 {
			mode = _SW_SHOW
		}
		procShowWindow.Call(uintptr(hwnd), mode)
		return 0
	case _WM_REPAINTREQ:
		procInvalidateRect.Call(uintptr(hwnd), 0, 0)
		return 0
	case _WM_DESTROYREQ:
		procDestroyWindow.Call(uintptr(hwnd))
		return 0
	}
	return defWindowProc(hwnd, message, wParam, lParam)
}

func defWindowProc(hwnd windows.Handle, message uint32, wParam, lParam uintptr) uintptr {
	ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(message), wParam, lParam)
	return ret
}

func (w *win32Window) clientExtent() gpu.Extent {
	var r rect
	procGetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	return gpu.Extent{
		Width:  uint16(min(max(r.right-r.left, 0), 0xffff)),
		Height: uint16(min(max(r.bottom-r.top, 0), 0xffff)),
	}
}

func (w *win32Window) handle() gpu.WindowHandle {
	return gpu.WindowHandle(w.hwnd)
}

func (w *win32Window) setTitle(title string) {
	w.titleMu.Lock()
	w.title = title
	w.titleMu.Unlock()
	w.post(_WM_SETTITLE, 0)
}

func (w *win32Window) show(shown bool) {
	var arg uintptr
	if shown {
		arg = 1
	}
	w.post(_WM_SHOWREQ, arg)
}

func (w *win32Window) requestRepaint() {
	w.post(_WM_REPAINTREQ, 0)
}

func (w *win32Window) requestClose() {
	w.post(_WM_CLOSE, 0)
}

func (w *win32Window) destroy() {
	w.post(_WM_DESTROYREQ, 0)
}

func (w *win32Window) post(message uint32, wParam uintptr) {
	procPostMessageW.Call(uintptr(w.hwnd), uintptr(message), wParam, 0)
}

func coordsFromLParam(lParam uintptr) (float32, float32) {
	x := int16(lParam & 0xffff)
	y := int16((lParam >> 16) & 0xffff)
	return float32(x), float32(y)
}

func buttonFromMessage(message uint32) PointerButton {
	switch message {
	case _WM_LBUTTONDOWN, _WM_LBUTTONUP, _WM_LBUTTONDBLCLK:
		return ButtonLeft
	case _WM_RBUTTONDOWN, _WM_RBUTTONUP, _WM_RBUTTONDBLCLK:
		return ButtonRight
	default:
		return ButtonMiddle
	}
}

// dpiScale queries the window's DPI scale, defaulting to 1 where
// GetDpiForWindow is unavailable (pre-1607 systems).
func dpiScale(hwnd windows.Handle) float32 {
	if procGetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := procGetDpiForWindow.Call(uintptr(hwnd))
	if dpi == 0 {
		return 1
	}
	return float32(dpi) / _USER_DEFAULT_SCREEN_DPI
}

func wheelDelta(wParam uintptr) float32 {
	return float32(int16(wParam>>16)) / _WHEEL_DELTA
}

// displayQueryError marks a display configuration failure that may
// resolve on its own while the display set is changing.
type displayQueryError struct {
	transient bool
}

func (e *displayQueryError) Error() string {
	return "app: display settings query failed"
}

func (e *displayQueryError) Transient() bool {
	return e.transient
}

// displayRefresh queries the primary display's refresh interval,
// retrying transient failures, and falls back to 60Hz.
func displayRefresh() time.Duration {
	hz, err := retryQuery(3, func() (uint32, error) {
		var dm devMode
		dm.dmSize = uint16(unsafe.Sizeof(dm))
		ret, _, _ := procEnumDisplaySettingsW.Call(
			0, _ENUM_CURRENT_SETTINGS, uintptr(unsafe.Pointer(&dm)),
		)
		if ret == 0 {
			return 0, &displayQueryError{transient: false}
		}
		if dm.dmDisplayFrequency < 2 {
			// 0 and 1 mean "hardware default"; treat as transient
			// while mode switches settle.
			return 0, &displayQueryError{transient: true}
		}
		return dm.dmDisplayFrequency, nil
	})
	if err != nil {
		debug.Log().Debug().
			Err(err).
			Log("display refresh query failed, assuming 60Hz")
		return time.Second / 60
	}
	return time.Second / time.Duration(hz)
}
