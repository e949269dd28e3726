package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/kabegami/internal/models"
)

// requestTimeout covers a manual rotation, which downloads before responding
const requestTimeout = 3 * time.Minute

// daemonClient calls the local Kabegami HTTP API
type daemonClient struct {
	baseURL    string
	httpClient *http.Client
}

func newDaemonClient(baseURL string) *daemonClient {
	return &daemonClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// daemonError is a non-2xx answer from the daemon
type daemonError struct {
	StatusCode int
	Message    string
}

func (e *daemonError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

func (c *daemonClient) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		message := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return &daemonError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *daemonClient) Rotate(ctx context.Context) (models.RotationResult, error) {
	var result models.RotationResult
	err := c.do(ctx, http.MethodPost, "/api/rotate", &result)
	return result, err
}

func (c *daemonClient) Apply(ctx context.Context, id string) (models.RotationResult, error) {
	var result models.RotationResult
	err := c.do(ctx, http.MethodPost, "/api/rotate/"+url.PathEscape(id), &result)
	return result, err
}

func (c *daemonClient) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	var body struct {
		Items []models.CatalogItem `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/catalog?q="+url.QueryEscape(query), &body)
	return body.Items, err
}

func (c *daemonClient) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	var body struct {
		Entries []models.HistoryEntry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history?limit="+strconv.Itoa(limit), &body)
	return body.Entries, err
}

func (c *daemonClient) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	var body struct {
		Favorite bool `json:"favorite"`
	}
	err := c.do(ctx, http.MethodPost, "/api/favorites/"+url.PathEscape(id)+"/toggle", &body)
	return body.Favorite, err
}

func (c *daemonClient) ToggleBlocked(ctx context.Context, id string) (bool, error) {
	var body struct {
		Blocked bool `json:"blocked"`
	}
	err := c.do(ctx, http.MethodPost, "/api/blocked/"+url.PathEscape(id)+"/toggle", &body)
	return body.Blocked, err
}
