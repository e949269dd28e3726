package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/kabegami/internal/interfaces"
)

type cachedFile struct {
	path    string
	size    int64
	modTime time.Time
}

// scan enumerates completed cache files; temp files and directories are skipped
func (m *Manager) scan() ([]cachedFile, int64, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read cache root: %w", err)
	}

	files := make([]cachedFile, 0, len(entries))
	var total int64
	for _, entry := range entries {
		if entry.IsDir() || isTempFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		files = append(files, cachedFile{
			path:    filepath.Join(m.root, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
		total += info.Size()
	}

	return files, total, nil
}

// Evict deletes unprotected files oldest-mtime-first until usage is within
// maxBytes or nothing evictable remains. maxBytes <= 0 disables eviction.
// Returns the number of files deleted.
func (m *Manager) Evict(maxBytes int64, protectedPaths []string) (int, error) {
	if maxBytes <= 0 {
		return 0, nil
	}

	files, total, err := m.scan()
	if err != nil {
		return 0, err
	}
	if total <= maxBytes {
		return 0, nil
	}

	protected := make(map[string]struct{}, len(protectedPaths))
	for _, p := range protectedPaths {
		if p == "" {
			continue
		}
		protected[normalizePath(p)] = struct{}{}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})

	deleted := 0
	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if _, ok := protected[normalizePath(f.path)]; ok {
			continue
		}
		if err := os.Remove(f.path); err != nil {
			m.logger.Warn().Err(err).Str("path", f.path).Msg("Failed to evict cached file")
			continue
		}
		total -= f.size
		deleted++
	}

	if deleted > 0 {
		m.logger.Info().
			Int("deleted", deleted).
			Int64("bytes", total).
			Int64("budget", maxBytes).
			Msg("Cache eviction completed")
	}
	if total > maxBytes {
		m.logger.Debug().Int64("bytes", total).Int64("budget", maxBytes).Msg("Cache over budget with nothing left to evict")
	}

	return deleted, nil
}

// Usage reports the file count and total size of completed cache files
func (m *Manager) Usage() (interfaces.CacheUsage, error) {
	files, total, err := m.scan()
	if err != nil {
		return interfaces.CacheUsage{}, err
	}
	return interfaces.CacheUsage{Root: m.root, Files: len(files), Bytes: total}, nil
}
