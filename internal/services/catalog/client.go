// Package catalog fetches the card-illustration list from the backend and
// holds the current snapshot used for selection and search.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
	"golang.org/x/time/rate"
)

const (
	// ItemsPath lists every card illustration
	ItemsPath = "/api/card-illustrations"

	// ImagePath is followed by /{id}?type=full|half
	ImagePath = "/api/card-illustrations/image"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5
)

// ErrEmptyBaseURL is returned when no backend URL is configured
var ErrEmptyBaseURL = errors.New("catalog base URL is empty")

// Client is the card-illustration backend client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Compile-time assertion
var _ interfaces.CatalogClient = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit. Zero disables limiting.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a catalog client for baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the normalised backend URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents a non-2xx response from the catalog backend.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// FetchItems GETs the full list and keeps only items with a full-size image
func (c *Client) FetchItems(ctx context.Context) ([]models.CatalogItem, error) {
	if c.baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL := c.baseURL + ItemsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.UserAgent())

	if c.logger != nil {
		c.logger.Debug().Str("url", reqURL).Msg("Catalog API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   ItemsPath,
		}
	}

	items, err := ParseItems(body, c.baseURL)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debug().Int("count", len(items)).Msg("Catalog API response parsed")
	}

	return items, nil
}

type rawItem struct {
	ID     json.RawMessage `json:"id"`
	Name   *string         `json:"name"`
	Assets struct {
		Images map[string]json.RawMessage `json:"images"`
	} `json:"assets"`
}

// ParseItems decodes a root array or {"cards": [...]}. Any other shape
// yields an empty list. Item URLs are built from baseURL.
func ParseItems(body []byte, baseURL string) ([]models.CatalogItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []models.CatalogItem{}, nil
	}

	var raw []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		cards, ok := wrapper["cards"]
		if !ok || len(bytes.TrimSpace(cards)) == 0 || bytes.TrimSpace(cards)[0] != '[' {
			return []models.CatalogItem{}, nil
		}
		if err := json.Unmarshal(cards, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse catalog cards: %w", err)
		}
	default:
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("failed to parse catalog: invalid JSON")
		}
		return []models.CatalogItem{}, nil
	}

	base := strings.TrimRight(baseURL, "/")
	items := make([]models.CatalogItem, 0, len(raw))
	for _, element := range raw {
		var r rawItem
		if err := json.Unmarshal(element, &r); err != nil {
			continue
		}

		id := parseID(r.ID)
		if strings.TrimSpace(id) == "" {
			continue
		}
		if !truthy(r.Assets.Images["full"]) {
			continue
		}

		name := id
		if r.Name != nil {
			name = *r.Name
		}

		escaped := url.PathEscape(id)
		items = append(items, models.CatalogItem{
			ID:           id,
			DisplayName:  name,
			FullImageURL: fmt.Sprintf("%s%s/%s?type=full", base, ImagePath, escaped),
			ThumbnailURL: fmt.Sprintf("%s%s/%s?type=half", base, ImagePath, escaped),
			Position:     len(items),
		})
	}

	return items, nil
}

// parseID accepts a JSON string or the raw text of any other value (numbers)
func parseID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	return string(trimmed)
}

// truthy accepts true or a case-insensitive "true" string
func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case 't':
		return bytes.Equal(trimmed, []byte("true"))
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(s), "true")
	default:
		return false
	}
}
