package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
)

// MigratedSuffix is appended to the legacy file once it has been converted
const MigratedSuffix = ".migrated"

// MigrateLegacy converts legacyPath into statePath when statePath does not
// exist yet. The legacy file is renamed with MigratedSuffix afterwards.
// Returns true when a migration happened. Runs before NewLedger at startup.
func MigrateLegacy(statePath string, legacyPath string, reader FormatReader, logger arbor.ILogger) (bool, error) {
	if legacyPath == "" {
		return false, nil
	}

	if _, err := os.Stat(statePath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat history file: %w", err)
	}

	data, err := os.ReadFile(legacyPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read legacy history: %w", err)
	}

	if reader == nil {
		reader = LegacyReader{}
	}

	state, err := reader.Read(data)
	if err != nil {
		return false, fmt.Errorf("legacy history (%s): %w", reader.Name(), err)
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal migrated history: %w", err)
	}
	if err := common.WriteFileAtomic(statePath, out, 0644); err != nil {
		return false, err
	}

	if err := os.Rename(legacyPath, legacyPath+MigratedSuffix); err != nil {
		// history.json is already in place, so the next start skips migration
		logger.Warn().Err(err).Str("path", legacyPath).Msg("Failed to rename legacy history file")
	}

	logger.Info().
		Str("from", legacyPath).
		Str("to", statePath).
		Str("format", reader.Name()).
		Int("entries", len(state.Entries)).
		Msg("Legacy history migrated")

	return true, nil
}
