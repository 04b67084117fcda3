package logging

import (
	"time"

	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/rs/zerolog"
)

// AssetLogger returns a logger carrying the identity of an asset
func AssetLogger(logger zerolog.Logger, asset types.Asset) zerolog.Logger {
	ctx := logger.With().Str("path", asset.RelPath)
	if asset.Type != "" {
		ctx = ctx.Str("type", asset.Type)
	}
	if asset.IsConfig {
		ctx = ctx.Bool("config", true)
	}
	return ctx.Logger()
}

// LogOutcome logs how an asset ended up. Failures are errors and results
// carrying warnings are warnings, everything else is informational.
func LogOutcome(logger zerolog.Logger, res types.AssetResult) {
	logger = AssetLogger(logger, res.Asset)

	var event *zerolog.Event
	msg := "Installed"
	switch {
	case res.Outcome == types.OutcomeFailed:
		event = logger.Error().Str("error", res.Error)
		msg = "Failed to install"
	case len(res.Warnings) > 0:
		event = logger.Warn().Strs("warnings", res.Warnings)
	default:
		event = logger.Info()
	}

	event = event.Str("outcome", string(res.Outcome)).Str("dest", res.Dest)
	if res.LinkTarget != "" {
		event = event.Str("link", res.LinkTarget)
	}
	if len(res.Compressed) > 0 {
		event = event.Strs("compressed", res.Compressed)
	}
	event.Msg(msg)
}

// StartRun logs the start of an install run. The returned function logs
// the per-outcome tally and how long the run took.
func StartRun(logger zerolog.Logger, source, installDir string) func(report *types.Report, err error) {
	start := time.Now()
	logger.Debug().Str("source", source).Str("install_dir", installDir).Msg("Install started")

	return func(report *types.Report, err error) {
		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}
		event = event.Dur("duration", time.Since(start))
		if report != nil {
			for _, outcome := range types.Outcomes {
				if n := report.Count(outcome); n > 0 {
					event = event.Int(string(outcome), n)
				}
			}
			if len(report.ExtraLinks) > 0 {
				event = event.Int("extra_links", len(report.ExtraLinks))
			}
		}
		event.Msg("Install finished")
	}
}
