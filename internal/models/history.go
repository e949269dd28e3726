package models

import "time"

// Outcome is the closed set of result codes recorded per rotation attempt
type Outcome string

const (
	OutcomeOK                    Outcome = "ok"
	OutcomeNoCandidates          Outcome = "no_candidates"
	OutcomeNoEligibleCandidates  Outcome = "no_eligible_candidates"
	OutcomeDownloadFailed        Outcome = "download_failed"
	OutcomeWallpaperNotSupported Outcome = "wallpaper_not_supported"
	OutcomeSetWallpaperFailed    Outcome = "setwallpaper_failed"
	OutcomeInvalidKey            Outcome = "invalid_key"
)

// IsSuccess returns true for the ok outcome
func (o Outcome) IsSuccess() bool {
	return o == OutcomeOK
}

// HistoryEntry is immutable once appended. FileName is relative to the ledger's base path.
type HistoryEntry struct {
	At       time.Time `json:"at"`
	Key      string    `json:"key"`
	FileName string    `json:"fileName"`
	Result   Outcome   `json:"result"`
}

// HistoryState is the persisted ledger: one base directory plus entries in append order
type HistoryState struct {
	BasePath string         `json:"basePath"`
	Entries  []HistoryEntry `json:"entries"`
}
