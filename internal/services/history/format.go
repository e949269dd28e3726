package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/kabegami/internal/models"
)

// FormatReader decodes one on-disk history representation into a HistoryState
type FormatReader interface {
	Name() string
	Read(data []byte) (models.HistoryState, error)
}

// StateReader reads the current history.json document
type StateReader struct{}

func (StateReader) Name() string { return "state-json" }

func (StateReader) Read(data []byte) (models.HistoryState, error) {
	var state models.HistoryState
	if len(bytes.TrimSpace(data)) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return models.HistoryState{}, fmt.Errorf("failed to parse history state: %w", err)
	}
	if state.Entries == nil {
		state.Entries = []models.HistoryEntry{}
	}
	return state, nil
}

// LegacyReader reads history.jsonl. Older builds wrote either one entry per
// line or the whole state document under that name; both are accepted.
type LegacyReader struct{}

func (LegacyReader) Name() string { return "legacy-jsonl" }

func (LegacyReader) Read(data []byte) (models.HistoryState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return models.HistoryState{Entries: []models.HistoryEntry{}}, nil
	}

	if trimmed[0] == '{' {
		var state models.HistoryState
		if err := json.Unmarshal(trimmed, &state); err == nil && state.Entries != nil {
			return state, nil
		}
	}

	state := models.HistoryState{Entries: []models.HistoryEntry{}}
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(text), &entry); err != nil {
			return models.HistoryState{}, fmt.Errorf("failed to parse legacy history line %d: %w", line, err)
		}
		if entry.Result == "" {
			entry.Result = models.OutcomeOK
		}
		state.Entries = append(state.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return models.HistoryState{}, fmt.Errorf("failed to scan legacy history: %w", err)
	}

	return state, nil
}
