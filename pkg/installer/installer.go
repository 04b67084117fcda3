package installer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/arthur-debert/webinstall/pkg/assets"
	"github.com/arthur-debert/webinstall/pkg/compress"
	"github.com/arthur-debert/webinstall/pkg/config"
	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/filesystem"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/symlinks"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/arthur-debert/webinstall/pkg/transform"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/rs/zerolog"
)

// Installer runs the install pipeline for one configuration
type Installer struct {
	cfg    *config.Config
	fs     types.FS
	runner tools.Runner
	tools  *types.ToolAvailability
	logger zerolog.Logger
}

// Option customizes an Installer
type Option func(*Installer)

// WithFS replaces the OS filesystem
func WithFS(fsys types.FS) Option {
	return func(i *Installer) { i.fs = fsys }
}

// WithRunner replaces the process runner used for external tools
func WithRunner(r tools.Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithTools skips probing and uses the given availability
func WithTools(avail types.ToolAvailability) Option {
	return func(i *Installer) { i.tools = &avail }
}

// New creates an installer
func New(cfg *config.Config, opts ...Option) *Installer {
	i := &Installer{
		cfg:    cfg,
		fs:     filesystem.NewOS(),
		runner: tools.NewExecRunner(),
		logger: logging.GetLogger("installer"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// run holds the per-run collaborators built from the configuration
type run struct {
	avail       types.ToolAvailability
	resolver    *symlinks.Resolver
	transformer *transform.Transformer
	compressor  *compress.Stage
}

// Install carries every asset through the pipeline. Tool problems are
// absorbed per asset and show up as warnings in the report. The error is
// non-nil when the source tree cannot be read or an asset could not be
// installed at all; the report is returned in both cases when available.
func (i *Installer) Install(ctx context.Context) (report *types.Report, err error) {
	finish := logging.StartRun(i.logger, i.sourceRoot(), filepath.Join(i.cfg.Root, i.cfg.AbsDir(i.cfg.InstallDir)))
	defer func() { finish(report, err) }()

	avail, err := i.probe(ctx)
	if err != nil {
		return nil, err
	}

	report = &types.Report{
		InstallDir: filepath.Join(i.cfg.Root, i.cfg.AbsDir(i.cfg.InstallDir)),
		ConfigDir:  filepath.Join(i.cfg.Root, i.cfg.AbsDir(i.cfg.ConfigDir)),
		Tools:      avail,
	}
	if avail.CanMinify() {
		i.logger.Info().Str("dir", report.InstallDir).Str("minifier", avail.Minifier).Msg("Minifying client")
	} else {
		i.logger.Info().Str("dir", report.InstallDir).Msg("Copying client")
	}

	groups, err := assets.Enumerate(i.fs, i.sourceRoot(), i.cfg.TempSuffix, i.cfg.IsConfigurationFile)
	if err != nil {
		return nil, err
	}

	r := &run{
		avail:       avail,
		resolver:    symlinks.NewResolver(i.fs, i.cfg.SymlinkCandidates()),
		transformer: transform.New(i.fs, i.cfg.EntryPoint, i.cfg.TempSuffix),
		compressor:  compress.NewStage(i.fs, i.runner, avail, i.cfg.CompressOptions()),
	}

	failed := 0
	for _, group := range groups {
		i.logger.Debug().Str("dir", group.Dir).Int("assets", len(group.Assets)).Msg("Installing directory")
		for _, asset := range group.Assets {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			res := i.installAsset(ctx, r, asset)
			logging.LogOutcome(i.logger, res)
			if res.Outcome == types.OutcomeFailed {
				failed++
			}
			report.Results = append(report.Results, res)
		}
	}

	report.ExtraLinks = i.installExtraLinks(r)

	if failed > 0 {
		return report, errors.Newf(errors.ErrFileWrite, "%d assets could not be installed", failed).
			WithDetail("failed", failed)
	}
	return report, nil
}

func (i *Installer) probe(ctx context.Context) (types.ToolAvailability, error) {
	if i.tools != nil {
		return *i.tools, nil
	}
	prober := tools.NewProber(i.fs, i.runner, i.cfg.ToolEnvironment())
	return prober.Probe(ctx, i.cfg.ToolOptions())
}

func (i *Installer) sourceRoot() string {
	return i.cfg.AbsDir(i.cfg.SourceDir)
}

// Target resolves where an asset is installed
func (i *Installer) Target(asset types.Asset) types.InstallTarget {
	target := types.InstallTarget{
		Dest: filepath.Join(i.cfg.Root, i.cfg.AbsDir(i.cfg.InstallDir), asset.RelPath),
	}
	if asset.IsConfig {
		target.LinkTarget = filepath.Join(i.cfg.AbsDir(i.cfg.ConfigDir), asset.RelPath)
		target.ConfigDest = filepath.Join(i.cfg.Root, target.LinkTarget)
	}
	return target
}

func (i *Installer) installAsset(ctx context.Context, r *run, asset types.Asset) types.AssetResult {
	target := i.Target(asset)
	res := types.AssetResult{Asset: asset, Dest: target.Dest}

	fail := func(err error) types.AssetResult {
		res.Outcome = types.OutcomeFailed
		res.Error = err.Error()
		return res
	}

	// stale siblings from an earlier run must not outlive a new outcome
	for _, path := range []string{target.Dest, target.Dest + compress.GzipSuffix, target.Dest + compress.BrotliSuffix} {
		if err := filesystem.RemoveIfExists(i.fs, path); err != nil {
			return fail(err)
		}
	}

	if asset.IsConfig {
		if err := i.installConfig(asset, target); err != nil {
			return fail(err)
		}
		res.Outcome = types.OutcomeConfig
		res.LinkTarget = target.LinkTarget
		return res
	}

	linked, ok, err := r.resolver.Resolve(asset.BaseName(), target.Dest)
	if err != nil {
		return fail(err)
	}
	if ok {
		res.Outcome = types.OutcomeSymlinked
		res.LinkTarget = linked
		return res
	}

	src, err := r.transformer.Prepare(asset)
	if err != nil {
		return fail(err)
	}
	defer i.cleanup(src)
	res.Transformed = src.Transformed

	if err := filesystem.EnsureParent(i.fs, target.Dest); err != nil {
		return fail(err)
	}
	if r.avail.CanMinify() && asset.Type == "js" {
		res.Outcome, err = i.minify(ctx, r.avail, src.Path, target.Dest, &res)
	} else {
		err = filesystem.CopyFile(i.fs, src.Path, target.Dest)
		res.Outcome = types.OutcomeCopied
	}
	if err != nil {
		return fail(err)
	}
	i.cleanup(src)

	r.compressor.Compress(ctx, asset, target.Dest, &res)
	return res
}

// installConfig copies the original content into the config directory and
// links the install location to it
func (i *Installer) installConfig(asset types.Asset, target types.InstallTarget) error {
	if err := filesystem.CopyFile(i.fs, asset.SourcePath, target.ConfigDest); err != nil {
		return err
	}
	return filesystem.ReplaceWithSymlink(i.fs, target.LinkTarget, target.Dest)
}

// minify runs the minifier from src into dst. When the tool fails or
// leaves nothing behind, src is copied verbatim instead.
func (i *Installer) minify(ctx context.Context, avail types.ToolAvailability, src, dst string, res *types.AssetResult) (types.Outcome, error) {
	argv := tools.MinifyArgs(avail, src, dst)
	out := i.runner.Run(ctx, argv[0], argv[1:]...)

	reason := ""
	switch {
	case !out.OK():
		reason = fmt.Sprintf("command %v returned error %d", argv, out.ExitCode)
	case !i.hasOutput(src, dst):
		reason = fmt.Sprintf("command %v produced no output", argv)
	}

	if reason != "" {
		assetLogger := logging.AssetLogger(i.logger, res.Asset)
		assetLogger.Error().
			Str("stdout", out.Stdout).
			Str("stderr", out.Stderr).
			Msgf("Failed to minify, %s", reason)
		res.Warn(fmt.Sprintf("failed to minify: %s", reason))
		if err := filesystem.CopyFile(i.fs, src, dst); err != nil {
			return types.OutcomeFailed, err
		}
		return types.OutcomeMinifyFallback, nil
	}

	if err := filesystem.Normalize(i.fs, dst); err != nil {
		return types.OutcomeFailed, err
	}
	return types.OutcomeMinified, nil
}

// hasOutput reports whether dst exists and, for a non-empty source, is
// non-empty as well
func (i *Installer) hasOutput(src, dst string) bool {
	info, err := i.fs.Lstat(dst)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() > 0 {
		return true
	}
	srcInfo, err := i.fs.Stat(src)
	return err == nil && srcInfo.Size() == 0
}

func (i *Installer) cleanup(src *transform.Source) {
	if err := src.Cleanup(); err != nil {
		i.logger.Warn().Err(err).Str("path", src.Path).Msg("Failed to remove temporary file")
	}
}

// installExtraLinks places links that have no counterpart in the source
// tree. Names without an existing candidate are skipped silently.
func (i *Installer) installExtraLinks(r *run) []types.ExtraLink {
	extra := i.cfg.ExtraSymlinkCandidates()
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	var links []types.ExtraLink
	for _, name := range names {
		dest := filepath.Join(i.cfg.Root, i.cfg.AbsDir(i.cfg.InstallDir), name)
		target, ok, err := r.resolver.ResolveList(extra[name], dest)
		if err != nil {
			i.logger.Warn().Err(err).Str("name", name).Msg("Failed to place extra symlink")
			continue
		}
		if ok {
			links = append(links, types.ExtraLink{Name: name, Dest: dest, Target: target})
		}
	}
	return links
}
