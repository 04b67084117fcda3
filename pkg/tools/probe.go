package tools

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/types"
	"github.com/rs/zerolog"
)

// Minifier names accepted in configuration
const (
	MinifierUglifyJS      = "uglifyjs"
	MinifierYUICompressor = "yuicompressor"
	MinifierHJSMin        = "hjsmin"
	MinifierCopy          = "copy"
)

// POSIXExtraDir is searched for brotli after $PATH; source installs of
// brotli commonly land there without it being on the path.
const POSIXExtraDir = "/usr/local/bin"

// ValidMinifier reports whether name is a known minifier setting
func ValidMinifier(name string) bool {
	switch name {
	case "", MinifierCopy, MinifierUglifyJS, MinifierYUICompressor, MinifierHJSMin:
		return true
	}
	return false
}

// Environment is the ambient state tool discovery depends on. It is
// captured once by the caller rather than read during the run.
type Environment struct {
	GOOS string
	// SearchPath holds the entries of $PATH in order
	SearchPath []string
}

// Options selects the tools to probe for
type Options struct {
	Minifier string
	// Java is the java binary used for the yuicompressor jar
	Java string
	// YUICompressorJar runs yuicompressor through java when set
	YUICompressorJar string
	Brotli           bool
	// BrotliCommand skips the search when set
	BrotliCommand string
}

// Prober discovers external tools
type Prober struct {
	fs     types.FS
	runner Runner
	env    Environment
	logger zerolog.Logger
}

// NewProber creates a prober
func NewProber(fsys types.FS, runner Runner, env Environment) *Prober {
	return &Prober{
		fs:     fsys,
		runner: runner,
		env:    env,
		logger: logging.GetLogger("tools.probe"),
	}
}

// Probe determines tool availability for a run
func (p *Prober) Probe(ctx context.Context, opts Options) (types.ToolAvailability, error) {
	var avail types.ToolAvailability

	cmd, err := p.ProbeMinifier(opts)
	if err != nil {
		if !errors.IsErrorCode(err, errors.ErrToolNotFound) {
			return avail, err
		}
		p.logger.Warn().Str("minifier", opts.Minifier).Msg("Minifier not found, scripts will be copied")
	} else if len(cmd) > 0 {
		avail.Minifier = opts.Minifier
		avail.MinifierCommand = cmd
	}

	if opts.Brotli {
		avail.BrotliPath, avail.BrotliVersion = p.ProbeBrotli(ctx, opts.BrotliCommand)
		if avail.BrotliPath == "" {
			p.logger.Warn().Msg("brotli not found, .br files will not be generated")
		}
	}

	p.logger.Info().
		Str("minifier", avail.Minifier).
		Str("brotli", avail.BrotliPath).
		Str("brotliVersion", avail.BrotliVersion).
		Msg("Probed external tools")
	return avail, nil
}

// ProbeMinifier returns the argv prefix for the configured minifier, nil
// when copying is requested, or a TOOL_NOT_FOUND error
func (p *Prober) ProbeMinifier(opts Options) ([]string, error) {
	switch opts.Minifier {
	case "", MinifierCopy:
		return nil, nil
	case MinifierUglifyJS, MinifierHJSMin:
		path, ok := p.Find(opts.Minifier)
		if !ok {
			return nil, errors.Newf(errors.ErrToolNotFound, "%s not found", opts.Minifier)
		}
		return []string{path}, nil
	case MinifierYUICompressor:
		if opts.YUICompressorJar != "" {
			java := opts.Java
			if java == "" {
				java = "java"
			}
			javaPath, ok := p.Find(java)
			if !ok {
				return nil, errors.Newf(errors.ErrToolNotFound, "%s not found", java)
			}
			if _, err := p.fs.Stat(opts.YUICompressorJar); err != nil {
				return nil, errors.Wrapf(err, errors.ErrToolNotFound, "jar %s not found", opts.YUICompressorJar)
			}
			return []string{javaPath, "-jar", opts.YUICompressorJar}, nil
		}
		path, ok := p.Find(MinifierYUICompressor)
		if !ok {
			return nil, errors.Newf(errors.ErrToolNotFound, "%s not found", MinifierYUICompressor)
		}
		return []string{path}, nil
	}
	return nil, errors.Newf(errors.ErrInvalidInput, "unknown minifier %q", opts.Minifier)
}

// ProbeBrotli finds the brotli binary and queries its version once. The
// version is empty when the query fails; the binary is still used.
func (p *Prober) ProbeBrotli(ctx context.Context, override string) (string, string) {
	var path string
	if override != "" {
		found, ok := p.Find(override)
		if !ok {
			return "", ""
		}
		path = found
	} else {
		for _, dir := range p.BrotliSearchDirs() {
			candidate := filepath.Join(dir, p.exeName("brotli"))
			if p.isFile(candidate) {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return "", ""
	}

	res := p.runner.Run(ctx, path, "--version")
	if !res.OK() {
		p.logger.Debug().Int("code", res.ExitCode).Str("brotli", path).Msg("brotli --version failed")
		return path, ""
	}
	return path, strings.Trim(res.Stdout, "\r\n")
}

// BrotliSearchDirs returns $PATH plus the extra POSIX directory
func (p *Prober) BrotliSearchDirs() []string {
	dirs := append([]string{}, p.env.SearchPath...)
	if p.env.GOOS != "windows" {
		dirs = append(dirs, POSIXExtraDir)
	}
	return dirs
}

// Find resolves a tool name to a path. Names containing a separator are
// checked as given, bare names are searched for on $PATH.
func (p *Prober) Find(name string) (string, bool) {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return name, p.isFile(name)
	}
	for _, dir := range p.env.SearchPath {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, p.exeName(name))
		if p.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (p *Prober) exeName(name string) string {
	if p.env.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

func (p *Prober) isFile(path string) bool {
	info, err := p.fs.Stat(path)
	return err == nil && !info.IsDir()
}

var versionPattern = regexp.MustCompile(`\d+(\.\d+)*`)

// BrotliModern reports whether a `brotli --version` output names version 1
// or newer, which accepts the short keep-original flag form
func BrotliModern(version string) bool {
	raw := versionPattern.FindString(version)
	if raw == "" {
		return false
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return false
	}
	return v.Major() >= 1
}

// MinifyArgs builds the full command line to minify src into dst
func MinifyArgs(avail types.ToolAvailability, src, dst string) []string {
	args := append([]string{}, avail.MinifierCommand...)
	switch avail.Minifier {
	case MinifierUglifyJS:
		args = append(args, src, "-o", dst, "--compress")
	case MinifierYUICompressor:
		args = append(args, src, "--nomunge", "--line-break", "400", "--type", "js", "-o", dst)
	case MinifierHJSMin:
		args = append(args, "-i", src, "-o", dst)
	}
	return args
}

// LegacyBrotliQuality is passed explicitly to brotli releases before 1.0,
// which do not default to maximum quality
const LegacyBrotliQuality = "11"

// BrotliArgs builds the brotli command line for dst, writing dst.br
func BrotliArgs(avail types.ToolAvailability, dst string) []string {
	if BrotliModern(avail.BrotliVersion) {
		return []string{avail.BrotliPath, "-k", dst}
	}
	return []string{avail.BrotliPath, "--input", dst, "--output", dst + ".br", "--quality", LegacyBrotliQuality}
}
