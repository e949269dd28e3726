package interfaces

// WallpaperSetter makes an absolute local file path the desktop background.
// The factory returns nil when no setter is available on this platform.
type WallpaperSetter interface {
	// TrySet applies the image. ok is false and errText explains why on failure.
	TrySet(absolutePath string) (ok bool, errText string)

	// Name identifies the setter in logs and status output
	Name() string
}
