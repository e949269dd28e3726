package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
	"github.com/ternarybob/kabegami/internal/models"
)

const (
	// RotationJobName identifies the rotation timer in status output
	RotationJobName = "rotation"

	// MinIntervalMinutes is the interval floor
	MinIntervalMinutes = 1

	// DefaultTickTimeout bounds one scheduled rotation attempt
	DefaultTickTimeout = 5 * time.Minute
)

// jobEntry represents a registered auxiliary job with metadata
type jobEntry struct {
	name      string
	schedule  string
	handler   func() error
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements SchedulerService: one rotation timer plus auxiliary cron jobs
type Service struct {
	rotation    interfaces.RotationService
	settings    interfaces.SettingsProvider
	cron        *cron.Cron
	logger      arbor.ILogger
	tickTimeout time.Duration
	spec        func(minutes int) string

	mu              sync.Mutex // Protects timer state below
	running         bool
	entryID         cron.EntryID
	intervalMinutes int
	ctx             context.Context
	cancel          context.CancelFunc
	lastRun         *time.Time
	lastOutcome     models.Outcome
	lastError       string

	procMu       sync.Mutex // Protects isProcessing
	isProcessing bool

	jobMu sync.Mutex // Protects jobs map
	jobs  map[string]*jobEntry
}

// Compile-time assertion
var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler. The timer is not armed until Start.
func NewService(rotation interfaces.RotationService, settings interfaces.SettingsProvider, tickTimeout time.Duration, logger arbor.ILogger) *Service {
	if tickTimeout <= 0 {
		tickTimeout = DefaultTickTimeout
	}
	return &Service{
		rotation:    rotation,
		settings:    settings,
		cron:        cron.New(),
		logger:      logger,
		tickTimeout: tickTimeout,
		spec:        everyMinutes,
		jobs:        make(map[string]*jobEntry),
	}
}

// effectiveInterval reads the live interval and applies the floor
func (s *Service) effectiveInterval() int {
	minutes := s.settings.Current().RotateIntervalMinutes
	if minutes < MinIntervalMinutes {
		minutes = MinIntervalMinutes
	}
	return minutes
}

func everyMinutes(minutes int) string {
	return fmt.Sprintf("@every %dm", minutes)
}

// Start arms the rotation timer with the currently configured interval.
// Calling Start while running re-arms the timer with the new interval.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	minutes := s.effectiveInterval()

	if s.running {
		s.cron.Remove(s.entryID)
	} else {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	entryID, err := s.cron.AddFunc(s.spec(minutes), s.tick)
	if err != nil {
		// The old entry is already gone: fully disarm
		s.cancel()
		s.ctx, s.cancel = nil, nil
		s.running = false
		return fmt.Errorf("failed to add rotation timer: %w", err)
	}

	s.entryID = entryID
	s.intervalMinutes = minutes
	s.running = true
	s.cron.Start()

	s.logger.Info().
		Int("interval_minutes", minutes).
		Msg("Rotation timer started")

	return nil
}

// Stop disarms the timer and cancels a scheduled attempt that is still in flight
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cron.Remove(s.entryID)
	s.cancel()
	s.ctx, s.cancel = nil, nil
	s.running = false

	s.logger.Info().Msg("Rotation timer stopped")
	return nil
}

// UpdateInterval restarts the timer if it is running, otherwise does nothing
func (s *Service) UpdateInterval() error {
	if !s.IsRunning() {
		return nil
	}

	s.mu.Lock()
	unchanged := s.intervalMinutes == s.effectiveInterval()
	s.mu.Unlock()
	if unchanged {
		return nil
	}

	return s.Start()
}

// IsRunning returns true if the rotation timer is armed
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow fires one tick immediately on its own goroutine
func (s *Service) RunNow() {
	common.SafeGo(s.logger, "scheduler-run-now", s.tick)
}

// Shutdown disarms the timer, stops cron, and waits for running jobs up to timeout
func (s *Service) Shutdown(timeout time.Duration) {
	_ = s.Stop()

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		s.logger.Warn().Dur("timeout", timeout).Msg("Scheduler jobs did not finish before shutdown timeout")
	}
}

// tick runs one scheduled rotation attempt. Overlapping ticks are skipped.
func (s *Service) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in rotation tick")
			s.mu.Lock()
			s.lastError = fmt.Sprintf("panic: %v", r)
			s.mu.Unlock()
		}
	}()

	current := s.settings.Current()
	if !current.AutoRotateEnabled {
		s.logger.Debug().Msg("Auto-rotate disabled, skipping tick")
		return
	}

	s.procMu.Lock()
	if s.isProcessing {
		s.procMu.Unlock()
		s.logger.Debug().Msg("Rotation already in progress, skipping tick")
		return
	}
	s.isProcessing = true
	s.procMu.Unlock()

	defer func() {
		s.procMu.Lock()
		s.isProcessing = false
		s.procMu.Unlock()
	}()

	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, s.tickTimeout)
	defer cancel()

	start := time.Now()
	result := s.rotation.ApplyNext(ctx, current.Preferences())
	finished := time.Now()

	s.mu.Lock()
	s.lastRun = &finished
	s.lastOutcome = result.Outcome
	if result.Success {
		s.lastError = ""
	} else {
		s.lastError = result.Message
		if result.Error != "" {
			s.lastError = result.Message + " " + result.Error
		}
	}
	s.mu.Unlock()

	s.logger.Debug().
		Str("outcome", string(result.Outcome)).
		Dur("duration", finished.Sub(start)).
		Msg("Rotation tick completed")
}

// RegisterJob registers an auxiliary cron job
func (s *Service) RegisterJob(name string, schedule string, handler func() error) error {
	if err := common.ValidateJobSchedule(schedule); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}

	entry := &jobEntry{
		name:     name,
		schedule: schedule,
		handler:  handler,
	}

	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeJob(name)
	})
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}

	entry.cronID = cronID
	s.jobs[name] = entry
	s.cron.Start()

	s.logger.Info().
		Str("job_name", name).
		Str("schedule", schedule).
		Msg("Job registered")

	return nil
}

// executeJob wraps job execution with panic recovery and status tracking
func (s *Service) executeJob(name string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job_name", name).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in job execution")

			s.jobMu.Lock()
			if entry, exists := s.jobs[name]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.jobMu.Lock()
	entry, exists := s.jobs[name]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("job_name", name).Msg("Job not found")
		return
	}
	if entry.isRunning {
		s.jobMu.Unlock()
		s.logger.Debug().Str("job_name", name).Msg("Job still running, skipping this cycle")
		return
	}
	entry.isRunning = true
	handler := entry.handler
	s.jobMu.Unlock()

	start := time.Now()
	err := handler()
	completed := time.Now()

	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &completed
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("job_name", name).
			Err(err).
			Dur("duration", completed.Sub(start)).
			Msg("Job execution failed")
		return
	}

	s.logger.Info().
		Str("job_name", name).
		Dur("duration", completed.Sub(start)).
		Msg("Job execution completed")
}

// nextRun returns the next fire time of an entry, or nil when unscheduled
func (s *Service) nextRun(id cron.EntryID) *time.Time {
	entry := s.cron.Entry(id)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}
	next := entry.Next
	return &next
}

// Status returns the rotation timer and auxiliary job status
func (s *Service) Status() interfaces.SchedulerStatus {
	s.procMu.Lock()
	processing := s.isProcessing
	s.procMu.Unlock()

	s.mu.Lock()
	interval := s.intervalMinutes
	if !s.running {
		interval = s.effectiveInterval()
	}
	rotation := interfaces.JobStatus{
		Name:      RotationJobName,
		Schedule:  everyMinutes(interval),
		LastRun:   s.lastRun,
		IsRunning: processing,
		LastError: s.lastError,
	}
	running := s.running
	if running {
		rotation.NextRun = s.nextRun(s.entryID)
	}
	s.mu.Unlock()

	s.jobMu.Lock()
	jobs := make([]interfaces.JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		jobs = append(jobs, interfaces.JobStatus{
			Name:      entry.name,
			Schedule:  entry.schedule,
			LastRun:   entry.lastRun,
			NextRun:   s.nextRun(entry.cronID),
			IsRunning: entry.isRunning,
			LastError: entry.lastError,
		})
	}
	s.jobMu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })

	return interfaces.SchedulerStatus{
		Running:         running,
		IntervalMinutes: interval,
		Rotation:        rotation,
		Jobs:            jobs,
	}
}

// LastOutcome returns the outcome of the most recent scheduled attempt
func (s *Service) LastOutcome() models.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}
