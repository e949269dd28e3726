// Package cache materialises catalog items as local image files under a
// byte budget, evicting the oldest unprotected files first.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

var (
	// ErrInvalidKey is returned when an item key is empty or blank
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrDownloadFailed wraps transport errors, non-2xx responses, and failed writes
	ErrDownloadFailed = errors.New("download failed")
)

// DefaultDownloadTimeout bounds a single image download when the caller's context has no deadline
const DefaultDownloadTimeout = 2 * time.Minute

// Manager implements interfaces.CacheManager on a single flat directory
type Manager struct {
	root       string
	httpClient *http.Client
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.CacheManager = (*Manager)(nil)

// ManagerOption configures the Manager
type ManagerOption func(*Manager)

// WithHTTPClient sets a custom HTTP client for downloads
func WithHTTPClient(httpClient *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = httpClient
	}
}

// NewManager creates a cache manager rooted at root, creating the directory if needed
func NewManager(root string, logger arbor.ILogger, opts ...ManagerOption) (*Manager, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("cache root is required")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache root: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache root: %w", err)
	}

	m := &Manager{
		root: absRoot,
		httpClient: &http.Client{
			Timeout: DefaultDownloadTimeout,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Root returns the absolute cache root
func (m *Manager) Root() string {
	return m.root
}

// PathForKey derives the deterministic cache path for key
func (m *Manager) PathForKey(key string) (string, error) {
	name, err := FileNameForKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(m.root, name), nil
}

// EnsureLocal returns the cached path for item, downloading it when absent.
// A fresh download is followed by an eviction pass that never removes the
// downloaded file or any of protectedPaths.
func (m *Manager) EnsureLocal(ctx context.Context, item models.CatalogItem, maxBytes int64, protectedPaths []string) (string, error) {
	path, err := m.PathForKey(item.Key())
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		m.logger.Debug().Str("key", item.Key()).Str("path", path).Msg("Cache hit")
		return path, nil
	}

	if err := m.download(ctx, item.FullImageURL, path); err != nil {
		m.logger.Warn().Err(err).Str("key", item.Key()).Str("url", item.FullImageURL).Msg("Image download failed")
		return "", err
	}

	m.logger.Info().Str("key", item.Key()).Str("path", path).Msg("Image cached")

	protected := append(append([]string{}, protectedPaths...), path)
	if _, err := m.Evict(maxBytes, protected); err != nil {
		// The file is in place; a failed eviction pass does not fail the download
		m.logger.Warn().Err(err).Msg("Cache eviction pass failed")
	}

	return path, nil
}

// download streams url into a temp file in the cache root and renames it onto dest
func (m *Manager) download(ctx context.Context, url string, dest string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("%w: empty image URL", ErrDownloadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(m.root, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	committed = true
	return nil
}
