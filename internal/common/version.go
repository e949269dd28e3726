package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stamped via -ldflags "-X github.com/ternarybob/kabegami/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// versionFileName is read at startup so packaged builds can be re-labelled
// without relinking.
const versionFileName = ".version"

// BuildInfo is the version triple served by GET /api/version
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
}

func CurrentBuild() BuildInfo {
	return BuildInfo{Version: Version, Build: Build, GitCommit: GitCommit}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", b.Version, b.Build, b.GitCommit)
}

func GetVersion() string {
	return Version
}

func GetFullVersion() string {
	return CurrentBuild().String()
}

// UserAgent identifies the daemon to the card catalog backend
func UserAgent() string {
	return "kabegami/" + Version
}

// LoadVersionFromFile overrides Version from a .version file. The executable's
// directory is checked first, then each of dirs; the first non-empty file wins.
func LoadVersionFromFile(dirs ...string) string {
	candidates := make([]string, 0, len(dirs)+1)
	if exePath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Dir(exePath))
	}
	candidates = append(candidates, dirs...)

	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, versionFileName))
		if err != nil {
			continue
		}
		if version := strings.TrimSpace(string(data)); version != "" {
			Version = version
			break
		}
	}

	return Version
}
