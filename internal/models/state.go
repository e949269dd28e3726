package models

import "time"

// StateValue is one persisted daemon state entry
type StateValue struct {
	Key       string    `json:"key" badgerhold:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
