//go:build !windows

package wallpaper

import (
	"os/exec"
	"runtime"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

// platformSetter picks a desktop command known to exist on this host
func platformSetter(logger arbor.ILogger) interfaces.WallpaperSetter {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("osascript"); err == nil {
			return NewCommandSetter(path, []string{
				"-e",
				`tell application "System Events" to tell every desktop to set picture to "` + PathPlaceholder + `"`,
			}, logger)
		}
	default:
		if path, err := exec.LookPath("gsettings"); err == nil {
			return NewCommandSetter(path, []string{
				"set", "org.gnome.desktop.background", "picture-uri", "file://" + PathPlaceholder,
			}, logger)
		}
		if path, err := exec.LookPath("feh"); err == nil {
			return NewCommandSetter(path, []string{"--bg-fill", PathPlaceholder}, logger)
		}
	}
	return nil
}
