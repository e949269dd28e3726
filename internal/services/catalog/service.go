package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// Service holds the current catalog snapshot. A refresh replaces the whole
// snapshot; readers always see one complete list.
type Service struct {
	client       interfaces.CatalogClient
	storage      interfaces.CatalogStorage
	eventService interfaces.EventService
	logger       arbor.ILogger

	mu          sync.RWMutex
	items       []models.CatalogItem
	byKey       map[string]int
	lastRefresh time.Time
}

// Compile-time assertion
var _ interfaces.CatalogService = (*Service)(nil)

// NewService creates the catalog service. storage and eventService may be nil.
func NewService(client interfaces.CatalogClient, storage interfaces.CatalogStorage, eventService interfaces.EventService, logger arbor.ILogger) *Service {
	return &Service{
		client:       client,
		storage:      storage,
		eventService: eventService,
		logger:       logger,
		items:        []models.CatalogItem{},
		byKey:        map[string]int{},
	}
}

// Refresh fetches the list and swaps it in. On error the previous snapshot stays.
func (s *Service) Refresh(ctx context.Context) ([]models.CatalogItem, error) {
	start := time.Now()

	items, err := s.client.FetchItems(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Catalog refresh failed")
		return nil, fmt.Errorf("failed to refresh catalog: %w", err)
	}

	s.replace(items)

	s.logger.Info().
		Int("count", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Catalog refreshed")

	if s.storage != nil {
		if err := s.storage.ReplaceAll(ctx, items); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist catalog snapshot")
		}
	}

	if s.eventService != nil {
		event := interfaces.Event{
			Type:    interfaces.EventCatalogUpdated,
			Payload: map[string]interface{}{"count": len(items)},
		}
		if err := s.eventService.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish catalog update")
		}
	}

	return s.Current(), nil
}

// LoadCached restores the last persisted snapshot. Used at startup before
// the first refresh so rotation works while the backend is unreachable.
func (s *Service) LoadCached(ctx context.Context) (int, error) {
	if s.storage == nil {
		return 0, nil
	}

	items, err := s.storage.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load cached catalog: %w", err)
	}

	s.mu.RLock()
	empty := len(s.items) == 0
	s.mu.RUnlock()
	if !empty {
		// A refresh already won
		return 0, nil
	}

	s.replace(items)
	s.logger.Debug().Int("count", len(items)).Msg("Catalog snapshot restored from storage")
	return len(items), nil
}

func (s *Service) replace(items []models.CatalogItem) {
	snapshot := make([]models.CatalogItem, len(items))
	copy(snapshot, items)
	index := make(map[string]int, len(snapshot))
	for i, item := range snapshot {
		if _, dup := index[item.ID]; !dup {
			index[item.ID] = i
		}
	}

	s.mu.Lock()
	s.items = snapshot
	s.byKey = index
	s.lastRefresh = time.Now()
	s.mu.Unlock()
}

// Current returns a copy of the snapshot
func (s *Service) Current() []models.CatalogItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CatalogItem, len(s.items))
	copy(out, s.items)
	return out
}

// Get looks up key in the snapshot
func (s *Service) Get(key string) (models.CatalogItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byKey[key]
	if !ok {
		return models.CatalogItem{}, false
	}
	return s.items[i], true
}

// Search matches query case-insensitively against id and name.
// A blank query returns the whole snapshot.
func (s *Service) Search(query string) []models.CatalogItem {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return s.Current()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogItem, 0)
	for _, item := range s.items {
		if strings.Contains(strings.ToLower(item.ID), term) || strings.Contains(strings.ToLower(item.DisplayName), term) {
			out = append(out, item)
		}
	}
	return out
}

// LastRefresh returns when the snapshot was last replaced (zero if never)
func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}
