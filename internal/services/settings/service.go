// Package settings owns the live user preferences persisted to settings.toml.
// Consumers read Current() on every use; nothing caches a copy.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

// ErrInvalidSettings wraps every validation failure returned by Update
var ErrInvalidSettings = errors.New("invalid settings")

// Service implements interfaces.SettingsService
type Service struct {
	mu           sync.RWMutex
	path         string
	current      models.Settings
	eventService interfaces.EventService
	validate     *validator.Validate
	logger       arbor.ILogger
}

// Compile-time assertion
var _ interfaces.SettingsService = (*Service)(nil)

// FromConfig converts the [rotation] config section into the initial settings value
func FromConfig(rc common.RotationConfig) models.Settings {
	rules := make([]models.ExclusionRule, 0, len(rc.ExcludeRules))
	for _, r := range rc.ExcludeRules {
		rules = append(rules, models.ExclusionRule{
			Type:  models.ExclusionRuleType(r.Type),
			Value: r.Value,
			Start: r.Start,
			End:   r.End,
		})
	}

	return models.Settings{
		AutoRotateEnabled:     rc.AutoRotateEnabled,
		RotateIntervalMinutes: rc.RotateIntervalMinutes,
		RotateOnAppStart:      rc.RotateOnAppStart,
		RecentExcludeCount:    rc.RecentExcludeCount,
		PreferFavorites:       rc.PreferFavorites,
		ExcludeBlocked:        rc.ExcludeBlocked,
		ExcludeThirdEvolution: rc.ExcludeThirdEvolution,
		ExcludeRules:          rules,
		CacheMaxMB:            rc.CacheMaxMB,
		HistoryMaxEntries:     rc.HistoryMaxEntries,
	}
}

// NewService loads path on top of seed. Keys missing from the file keep their
// seed values. When the file does not exist it is created from seed.
// eventService may be nil.
func NewService(path string, seed models.Settings, eventService interfaces.EventService, logger arbor.ILogger) (*Service, error) {
	s := &Service{
		path:         path,
		current:      cloneSettings(seed),
		eventService: eventService,
		validate:     validator.New(),
		logger:       logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := s.save(seed); err != nil {
			return nil, err
		}
		logger.Info().Str("path", path).Msg("Settings file created from configuration")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	// Decode into a copy: go-toml reuses the slice backing array
	loaded := cloneSettings(seed)
	if err := toml.Unmarshal(data, &loaded); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to parse settings, using configuration defaults")
		return s, nil
	}
	if err := s.check(loaded); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Invalid settings file, using configuration defaults")
		return s, nil
	}

	s.current = loaded
	logger.Debug().
		Bool("auto_rotate", loaded.AutoRotateEnabled).
		Int("interval_minutes", loaded.RotateIntervalMinutes).
		Msg("Settings loaded")

	return s, nil
}

// Current returns the live settings value
func (s *Service) Current() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.current)
}

func cloneSettings(in models.Settings) models.Settings {
	out := in
	out.ExcludeRules = append([]models.ExclusionRule(nil), in.ExcludeRules...)
	return out
}

// Update validates and persists next, swaps it in, then publishes settings_changed
func (s *Service) Update(next models.Settings) (models.Settings, error) {
	if err := s.check(next); err != nil {
		return models.Settings{}, err
	}

	s.mu.Lock()
	if err := s.save(next); err != nil {
		s.mu.Unlock()
		return models.Settings{}, err
	}
	s.current = cloneSettings(next)
	s.mu.Unlock()

	s.logger.Info().
		Bool("auto_rotate", next.AutoRotateEnabled).
		Int("interval_minutes", next.RotateIntervalMinutes).
		Msg("Settings updated")

	if s.eventService != nil {
		event := interfaces.Event{Type: interfaces.EventSettingsChanged, Payload: next}
		if err := s.eventService.PublishSync(context.Background(), event); err != nil {
			s.logger.Warn().Err(err).Msg("Settings change handler failed")
		}
	}

	return next, nil
}

func (s *Service) check(v models.Settings) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	for i, r := range v.ExcludeRules {
		if r.Type == models.ExclusionSegment && r.End <= r.Start {
			return fmt.Errorf("%w: exclude rule %d: segment end must be greater than start", ErrInvalidSettings, i)
		}
	}
	return nil
}

func (s *Service) save(v models.Settings) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := common.WriteFileAtomic(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}
