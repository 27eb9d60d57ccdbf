//go:build windows
// +build windows

package capture

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"gocv.io/x/gocv"
)

var (
	user32  = windows.NewLazySystemDLL("user32.dll")
	gdi32   = windows.NewLazySystemDLL("gdi32.dll")

	procFindWindowW     = user32.NewProc("FindWindowW")
	procGetClientRect    = user32.NewProc("GetClientRect")
	procGetDC            = user32.NewProc("GetDC")
	procReleaseDC        = user32.NewProc("ReleaseDC")
	procGetDesktopWindow = user32.NewProc("GetDesktopWindow")

	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateCompatibleBitmap = gdi32.NewProc("CreateCompatibleBitmap")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGetDIBits              = gdi32.NewProc("GetDIBits")
)

const srccopy = 0x00CC0020

type rect struct{ left, top, right, bottom int32 }

type bitmapInfoHeader struct {
	size          uint32
	width, height int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

func findWindowByCaption(caption string) (uintptr, error) {
	namePtr, err := windows.UTF16PtrFromString(caption)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid window caption: %v", ErrSourceNotReady, err)
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(namePtr)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%w: window %q not found", ErrSourceNotReady, caption)
	}
	return hwnd, nil
}

// captureWindowClientArea and captureDesktop share the same
// GDI BitBlt-into-DIB path; only the source device context differs.
func captureWindowClientArea(hwnd uintptr) (gocv.Mat, error) {
	var r rect
	ret, _, _ := procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return gocv.Mat{}, fmt.Errorf("GetClientRect failed")
	}
	width, height := int(r.right-r.left), int(r.bottom-r.top)
	hdc, _, _ := procGetDC.Call(hwnd)
	defer procReleaseDC.Call(hwnd, hdc)
	return bitBltToMat(hdc, width, height)
}

func captureDesktopArea() (gocv.Mat, error) {
	hwnd, _, _ := procGetDesktopWindow.Call()
	var r rect
	procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&r)))
	width, height := int(r.right-r.left), int(r.bottom-r.top)
	hdc, _, _ := procGetDC.Call(hwnd)
	defer procReleaseDC.Call(hwnd, hdc)
	return bitBltToMat(hdc, width, height)
}

func bitBltToMat(srcDC uintptr, width, height int) (gocv.Mat, error) {
	memDC, _, _ := procCreateCompatibleDC.Call(srcDC)
	defer procDeleteDC.Call(memDC)

	bitmap, _, _ := procCreateCompatibleBitmap.Call(srcDC, uintptr(width), uintptr(height))
	defer procDeleteObject.Call(bitmap)

	oldObj, _, _ := procSelectObject.Call(memDC, bitmap)
	defer procSelectObject.Call(memDC, oldObj)

	ret, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(width), uintptr(height), srcDC, 0, 0, srccopy)
	if ret == 0 {
		return gocv.Mat{}, fmt.Errorf("BitBlt failed")
	}

	header := bitmapInfoHeader{
		size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		width:       int32(width),
		height:      -int32(height), // top-down DIB
		planes:      1,
		bitCount:    32,
		compression: 0,
	}

	buf := make([]byte, width*height*4)
	procGetDIBits.Call(memDC, bitmap, 0, uintptr(height),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&header)), 0)

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap captured bytes: %w", err)
	}
	return mat, nil
}
