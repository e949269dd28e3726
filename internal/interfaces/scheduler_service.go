package interfaces

import "time"

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	IsRunning bool       `json:"is_running"`
	LastError string     `json:"last_error,omitempty"`
}

// SchedulerStatus is a point-in-time view of the rotation timer and auxiliary jobs
type SchedulerStatus struct {
	Running         bool        `json:"running"`
	IntervalMinutes int         `json:"interval_minutes"`
	Rotation        JobStatus   `json:"rotation"`
	Jobs            []JobStatus `json:"jobs"`
}

// SchedulerService owns the single recurring rotation trigger
type SchedulerService interface {
	// Start (re)arms the rotation timer using the currently configured interval
	Start() error

	// Stop halts the timer and cancels an in-flight scheduled attempt
	Stop() error

	// UpdateInterval restarts the timer if it is running, otherwise does nothing
	UpdateInterval() error

	// IsRunning returns true if the timer is armed
	IsRunning() bool

	// RunNow fires one tick immediately, subject to the same coalescing as timer ticks
	RunNow()

	// RegisterJob registers an auxiliary cron job
	RegisterJob(name string, schedule string, handler func() error) error

	// Status returns the current scheduler status
	Status() SchedulerStatus
}
