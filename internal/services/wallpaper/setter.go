// Package wallpaper provides the platform capability that makes a local
// image file the desktop background.
package wallpaper

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/kabegami/internal/common"
	"github.com/ternarybob/kabegami/internal/interfaces"
)

// PathPlaceholder in command args is replaced with the absolute image path
const PathPlaceholder = "{path}"

// DefaultCommandTimeout bounds one external setter invocation
const DefaultCommandTimeout = 30 * time.Second

// NewSetter returns the setter for this host, or nil when wallpapers cannot
// be set (disabled in config, or no known mechanism on this platform).
func NewSetter(cfg common.WallpaperConfig, logger arbor.ILogger) interfaces.WallpaperSetter {
	if cfg.Disabled {
		logger.Info().Msg("Wallpaper setter disabled by configuration")
		return nil
	}

	if strings.TrimSpace(cfg.Command) != "" {
		logger.Info().Str("command", cfg.Command).Msg("Using configured wallpaper command")
		return NewCommandSetter(cfg.Command, cfg.Args, logger)
	}

	setter := platformSetter(logger)
	if setter == nil {
		logger.Warn().Msg("No wallpaper setter available on this platform")
		return nil
	}

	logger.Info().Str("setter", setter.Name()).Msg("Wallpaper setter selected")
	return setter
}

// CommandSetter runs an external program to apply the image
type CommandSetter struct {
	command string
	args    []string
	timeout time.Duration
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.WallpaperSetter = (*CommandSetter)(nil)

// NewCommandSetter creates a setter for command. When no arg contains
// PathPlaceholder the path is appended as the final argument.
func NewCommandSetter(command string, args []string, logger arbor.ILogger) *CommandSetter {
	return &CommandSetter{
		command: command,
		args:    append([]string{}, args...),
		timeout: DefaultCommandTimeout,
		logger:  logger,
	}
}

func (s *CommandSetter) Name() string {
	return "command:" + filepath.Base(s.command)
}

// Args returns the argument list that would be passed for path
func (s *CommandSetter) Args(path string) []string {
	out := make([]string, 0, len(s.args)+1)
	replaced := false
	for _, a := range s.args {
		if strings.Contains(a, PathPlaceholder) {
			a = strings.ReplaceAll(a, PathPlaceholder, path)
			replaced = true
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}

func (s *CommandSetter) TrySet(absolutePath string) (bool, string) {
	if msg := checkImage(absolutePath); msg != "" {
		return false, msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command, s.Args(absolutePath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if text == "" {
			text = err.Error()
		}
		s.logger.Warn().Err(err).Str("command", s.command).Str("output", text).Msg("Wallpaper command failed")
		return false, text
	}

	return true, ""
}

// checkImage returns a non-empty reason when path cannot be applied
func checkImage(path string) string {
	if !filepath.IsAbs(path) {
		return "path is not absolute"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "image file not found"
	}
	if info.IsDir() {
		return "image path is a directory"
	}
	return ""
}
