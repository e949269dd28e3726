package models

import "time"

// Rotation reasons carried through to change events
const (
	ReasonAuto          = "auto"
	ReasonManual        = "manual"
	ReasonStartup       = "startup"
	ReasonHistoryReplay = "history-replay"
)

// RotationResult is returned by every rotation attempt
type RotationResult struct {
	AttemptID string       `json:"attempt_id"`
	Success   bool         `json:"success"`
	Outcome   Outcome      `json:"outcome"`
	Message   string       `json:"message"`
	Item      *CatalogItem `json:"item,omitempty"`
	LocalPath string       `json:"local_path,omitempty"`
	Reason    string       `json:"reason"`
	Error     string       `json:"error,omitempty"`
}

// WallpaperChanged is the payload of the wallpaper_changed event
type WallpaperChanged struct {
	AttemptID string      `json:"attempt_id"`
	Item      CatalogItem `json:"item"`
	LocalPath string      `json:"local_path"`
	Reason    string      `json:"reason"`
	At        time.Time   `json:"at"`
}
