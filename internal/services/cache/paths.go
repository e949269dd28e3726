package cache

import (
	"path/filepath"
	"strings"
)

const (
	filePrefix = "wallpaper_"
	fileExt    = ".jpg"

	tempPrefix = ".download-"
	tempSuffix = ".tmp"
)

// sanitizeKey replaces every rune outside [A-Za-z0-9] with '_'
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileNameForKey returns the cache file name for key, or ErrInvalidKey for a blank key
func FileNameForKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrInvalidKey
	}
	return filePrefix + sanitizeKey(key) + fileExt, nil
}

func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}

// normalizePath makes protected-path comparisons independent of relative forms
func normalizePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(p)
}
