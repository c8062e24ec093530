//go:build windows

package wallpaper

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	spiGetDeskWallpaper = 0x0073
	spiSetDeskWallpaper = 0x0014
	maxWallpaperPath    = 260
)

var (
	user32                    = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfoW = user32.NewProc("SystemParametersInfoW")
)

type windowsBackend struct{}

func newBackend(string) Backend {
	return &windowsBackend{}
}

func (b *windowsBackend) Name() string { return "SystemParametersInfoW" }

func (b *windowsBackend) Apply(path string, flags Flags) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	ret, _, callErr := procSystemParametersInfoW.Call(
		spiSetDeskWallpaper,
		0,
		uintptr(unsafe.Pointer(p)),
		uintptr(flags.WinIni()),
	)
	if ret == 0 {
		return lastError(callErr)
	}
	return nil
}

func (b *windowsBackend) Current() (string, error) {
	buf := make([]uint16, maxWallpaperPath)
	ret, _, callErr := procSystemParametersInfoW.Call(
		spiGetDeskWallpaper,
		uintptr(maxWallpaperPath),
		uintptr(unsafe.Pointer(&buf[0])),
		0,
	)
	if ret == 0 {
		return "", lastError(callErr)
	}
	return windows.UTF16ToString(buf), nil
}

// lastError turns the error LazyProc.Call reports into something printable.
// A FALSE return without a last error still counts as a failure.
func lastError(err error) error {
	var errno windows.Errno
	if err == nil || (errors.As(err, &errno) && errno == 0) {
		return errors.New("SystemParametersInfoW returned FALSE")
	}
	return err
}
