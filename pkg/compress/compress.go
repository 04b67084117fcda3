// Package compress produces the precompressed .gz and .br siblings served
// next to installed assets.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/filesystem"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

const (
	GzipSuffix   = ".gz"
	BrotliSuffix = ".br"
)

// Options selects which siblings are produced
type Options struct {
	Gzip   bool
	Brotli bool
	// Exclude lists asset types that are never compressed
	Exclude []string
}

// Stage compresses installed files
type Stage struct {
	fs      types.FS
	runner  tools.Runner
	tools   types.ToolAvailability
	opts    Options
	exclude map[string]bool
	logger  zerolog.Logger
}

// NewStage creates a compression stage for one run
func NewStage(fsys types.FS, runner tools.Runner, avail types.ToolAvailability, opts Options) *Stage {
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, t := range opts.Exclude {
		exclude[t] = true
	}
	return &Stage{
		fs:      fsys,
		runner:  runner,
		tools:   avail,
		opts:    opts,
		exclude: exclude,
		logger:  logging.GetLogger("compress"),
	}
}

// Applies reports whether the asset gets compressed siblings
func (s *Stage) Applies(asset types.Asset) bool {
	return !asset.IsConfig && !s.exclude[asset.Type]
}

// Compress writes the siblings of dst and records them on res. Failures
// are logged and recorded as warnings; they never stop the run.
func (s *Stage) Compress(ctx context.Context, asset types.Asset, dst string, res *types.AssetResult) {
	if !s.Applies(asset) {
		return
	}
	if s.opts.Gzip {
		if err := s.Gzip(dst); err != nil {
			s.logger.Error().Err(err).Str("path", asset.RelPath).Msg("gzip failed")
			res.Warn(err.Error())
		} else {
			res.Compressed = append(res.Compressed, dst+GzipSuffix)
		}
	}
	if s.opts.Brotli && s.tools.CanBrotli() {
		out, warning := s.Brotli(ctx, dst)
		if warning != "" {
			res.Warn(warning)
		}
		if out != "" {
			res.Compressed = append(res.Compressed, out)
		}
	}
}

// Gzip writes dst.gz at maximum compression. The header carries neither
// file name nor modification time, so output depends on content only.
func (s *Stage) Gzip(dst string) error {
	out := dst + GzipSuffix
	if err := filesystem.RemoveIfExists(s.fs, out); err != nil {
		return err
	}
	data, err := s.fs.ReadFile(dst)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", dst)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to create gzip writer")
	}
	zw.Name = ""
	zw.ModTime = time.Time{}
	if _, err := zw.Write(data); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to compress %s", dst)
	}
	if err := zw.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to compress %s", dst)
	}

	if err := s.fs.WriteFile(out, buf.Bytes(), filesystem.FileMode); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", out)
	}
	if err := filesystem.Normalize(s.fs, out); err != nil {
		return err
	}
	s.logger.Debug().Str("path", out).Msg("Created gzip file")
	return nil
}

// Brotli runs the brotli tool on dst. It returns the created file, or a
// warning describing why there is none.
func (s *Stage) Brotli(ctx context.Context, dst string) (string, string) {
	out := dst + BrotliSuffix
	if err := filesystem.RemoveIfExists(s.fs, out); err != nil {
		return "", err.Error()
	}

	argv := tools.BrotliArgs(s.tools, dst)
	res := s.runner.Run(ctx, argv[0], argv[1:]...)
	if !res.OK() {
		s.logger.Error().
			Int("code", res.ExitCode).
			Strs("command", argv).
			Str("stdout", res.Stdout).
			Str("stderr", res.Stderr).
			Msg("brotli error")
		return "", fmt.Sprintf("brotli error code=%d on %s", res.ExitCode, dst)
	}
	if !filesystem.Exists(s.fs, out) {
		s.logger.Warn().Str("path", out).Msg("brotli did not create output file")
		return "", fmt.Sprintf("brotli did not create %s", out)
	}
	if err := filesystem.Normalize(s.fs, out); err != nil {
		return out, err.Error()
	}
	s.logger.Debug().Str("path", out).Msg("Created brotli file")
	return out, ""
}
