package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved locations
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("Kabegami", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("data_root", config.Paths.Root).
		Str("cache", config.Paths.Cache).
		Str("catalog", config.Catalog.BaseURL).
		Msg("Kabegami starting")
}
