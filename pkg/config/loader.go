package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/webinstall/pkg/errors"
	"github.com/arthur-debert/webinstall/pkg/logging"
	"github.com/arthur-debert/webinstall/pkg/tools"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override configuration keys
const EnvPrefix = "WEBINSTALL_"

// UserConfigPath is searched for under the XDG config directories
const UserConfigPath = "webinstall/config.toml"

// projectConfigNames are looked up in the working directory
var projectConfigNames = []string{"webinstall.toml", "webinstall.yaml", "webinstall.yml"}

// LoadOptions controls which layers are read
type LoadOptions struct {
	Platform Platform
	// ConfigFile replaces the user file search when set
	ConfigFile string
	// Overrides holds command line values, keyed like the config file
	Overrides map[string]interface{}
}

// Load builds the configuration for a run
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load defaults")
	}

	// 2. Platform defaults
	if err := k.Load(confmap.Provider(opts.Platform.Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load platform defaults")
	}

	// 3. User config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 4. Environment
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 5. Command line
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load command line values")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	cfg.Platform = opts.Platform

	if err := postProcessConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}
	if opts.Platform.WorkDir != "" {
		for _, name := range projectConfigNames {
			path := filepath.Join(opts.Platform.WorkDir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	if path, err := xdg.SearchConfigFile(UserConfigPath); err == nil {
		return path, nil
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

func postProcessConfig(cfg *Config) error {
	if !tools.ValidMinifier(cfg.Minifier) {
		return errors.Newf(errors.ErrConfigValid, "unknown minifier %q", cfg.Minifier).
			WithDetail("minifier", cfg.Minifier)
	}
	if cfg.SourceDir == "" {
		return errors.New(errors.ErrConfigValid, "source_dir must not be empty")
	}
	if cfg.InstallDir == "" {
		return errors.New(errors.ErrConfigValid, "install_dir must not be empty")
	}
	if cfg.TempSuffix == "" {
		return errors.New(errors.ErrConfigValid, "temp_suffix must not be empty")
	}
	cfg.InstallDir = cfg.AbsDir(cfg.InstallDir)
	cfg.ConfigDir = cfg.AbsDir(cfg.ConfigDir)
	for _, rule := range cfg.Symlinks {
		if rule.Name == "" {
			return errors.New(errors.ErrConfigValid, "symlink rule without a name")
		}
	}
	return nil
}
