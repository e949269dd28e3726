//go:build windows

package wallpaper

import (
	"unsafe"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"golang.org/x/sys/windows"
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

// spiSetter calls SystemParametersInfoW(SPI_SETDESKWALLPAPER)
type spiSetter struct {
	logger arbor.ILogger
}

func platformSetter(logger arbor.ILogger) interfaces.WallpaperSetter {
	if err := procSystemParametersInfo.Find(); err != nil {
		logger.Warn().Err(err).Msg("SystemParametersInfoW not available")
		return nil
	}
	return &spiSetter{logger: logger}
}

func (s *spiSetter) Name() string {
	return "windows-spi"
}

func (s *spiSetter) TrySet(absolutePath string) (bool, string) {
	if msg := checkImage(absolutePath); msg != "" {
		return false, msg
	}

	ptr, err := windows.UTF16PtrFromString(absolutePath)
	if err != nil {
		return false, err.Error()
	}

	ret, _, callErr := procSystemParametersInfo.Call(
		uintptr(spiSetDeskWallpaper),
		0,
		uintptr(unsafe.Pointer(ptr)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		s.logger.Warn().Err(callErr).Str("path", absolutePath).Msg("SystemParametersInfoW failed")
		return false, callErr.Error()
	}

	return true, ""
}
