package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVersionFromFile_FirstNonEmptyDirWins(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })
	Version = "dev"

	blank := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(blank, ".version"), []byte("  \n"), 0644))
	stamped := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stamped, ".version"), []byte("1.4.2\n"), 0644))
	later := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(later, ".version"), []byte("9.9.9"), 0644))

	assert.Equal(t, "1.4.2", LoadVersionFromFile("", t.TempDir(), blank, stamped, later))
	assert.Equal(t, "kabegami/1.4.2", UserAgent())
	assert.Equal(t, "1.4.2", CurrentBuild().Version)
}

func TestLoadVersionFromFile_NoFileKeepsLinkedVersion(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })
	Version = "0.3.0"

	assert.Equal(t, "0.3.0", LoadVersionFromFile(t.TempDir()))
}

func TestBuildInfo_String(t *testing.T) {
	info := BuildInfo{Version: "1.0.0", Build: "2026-10-18", GitCommit: "abc123"}
	assert.Equal(t, "1.0.0 (build: 2026-10-18, commit: abc123)", info.String())
}
