package config

import (
	"path/filepath"

	"github.com/arthur-debert/webinstall/pkg/compress"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/arthur-debert/webinstall/pkg/types"
)

// SymlinkRule lists the system paths that may replace an asset
type SymlinkRule struct {
	Name       string   `koanf:"name" toml:"name" yaml:"name"`
	Candidates []string `koanf:"candidates" toml:"candidates" yaml:"candidates"`
}

// Config is the resolved configuration of an install run
type Config struct {
	// SourceDir is the asset tree to install
	SourceDir string `koanf:"source_dir" toml:"source_dir" yaml:"source_dir"`
	// Root is prepended to every destination, for staging package trees
	Root       string `koanf:"root" toml:"root" yaml:"root"`
	InstallDir string `koanf:"install_dir" toml:"install_dir" yaml:"install_dir"`
	ConfigDir  string `koanf:"config_dir" toml:"config_dir" yaml:"config_dir"`

	Minifier         string `koanf:"minifier" toml:"minifier" yaml:"minifier"`
	Java             string `koanf:"java" toml:"java,omitempty" yaml:"java,omitempty"`
	YUICompressorJar string `koanf:"yuicompressor_jar" toml:"yuicompressor_jar,omitempty" yaml:"yuicompressor_jar,omitempty"`

	Gzip          bool   `koanf:"gzip" toml:"gzip" yaml:"gzip"`
	Brotli        bool   `koanf:"brotli" toml:"brotli" yaml:"brotli"`
	BrotliCommand string `koanf:"brotli_command" toml:"brotli_command,omitempty" yaml:"brotli_command,omitempty"`

	EntryPoint string `koanf:"entry_point" toml:"entry_point" yaml:"entry_point"`
	TempSuffix string `koanf:"temp_suffix" toml:"temp_suffix" yaml:"temp_suffix"`

	ConfigurationFiles []string      `koanf:"configuration_files" toml:"configuration_files" yaml:"configuration_files"`
	CompressExclude    []string      `koanf:"compress_exclude" toml:"compress_exclude" yaml:"compress_exclude"`
	Symlinks           []SymlinkRule `koanf:"symlinks" toml:"symlinks" yaml:"symlinks"`
	ExtraSymlinks      []SymlinkRule `koanf:"extra_symlinks" toml:"extra_symlinks" yaml:"extra_symlinks"`

	Platform Platform `koanf:"-" toml:"-" yaml:"-"`
}

// SymlinkCandidates returns the asset replacement table
func (c *Config) SymlinkCandidates() types.SymlinkCandidates {
	return toCandidates(c.Symlinks)
}

// ExtraSymlinkCandidates returns the links placed after the asset walk
func (c *Config) ExtraSymlinkCandidates() types.SymlinkCandidates {
	return toCandidates(c.ExtraSymlinks)
}

// IsConfigurationFile reports whether an asset is diverted to ConfigDir.
// Names are compared with forward slashes on every platform.
func (c *Config) IsConfigurationFile(relPath string) bool {
	rel := filepath.ToSlash(relPath)
	for _, name := range c.ConfigurationFiles {
		if filepath.ToSlash(name) == rel {
			return true
		}
	}
	return false
}

// AbsDir anchors a relative directory at the working directory. Links to
// configuration files are resolved from the install directory, so a
// relative configuration directory would leave them dangling.
func (c *Config) AbsDir(dir string) string {
	if dir == "" || filepath.IsAbs(dir) || c.Platform.WorkDir == "" {
		return dir
	}
	return filepath.Join(c.Platform.WorkDir, dir)
}

// ToolOptions returns what the tool prober looks for
func (c *Config) ToolOptions() tools.Options {
	return tools.Options{
		Minifier:         c.Minifier,
		Java:             c.Java,
		YUICompressorJar: c.YUICompressorJar,
		Brotli:           c.Brotli,
		BrotliCommand:    c.BrotliCommand,
	}
}

// ToolEnvironment returns the captured environment for tool discovery
func (c *Config) ToolEnvironment() tools.Environment {
	return tools.Environment{
		GOOS:       c.Platform.GOOS,
		SearchPath: c.Platform.SearchPath,
	}
}

// CompressOptions returns the compression stage settings
func (c *Config) CompressOptions() compress.Options {
	return compress.Options{
		Gzip:    c.Gzip,
		Brotli:  c.Brotli,
		Exclude: c.CompressExclude,
	}
}

func toCandidates(rules []SymlinkRule) types.SymlinkCandidates {
	out := make(types.SymlinkCandidates, len(rules))
	for _, r := range rules {
		// later rules for the same name extend the list
		out[r.Name] = append(out[r.Name], r.Candidates...)
	}
	return out
}
