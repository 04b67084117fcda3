package cli

import (
	stderrors "errors"

	"github.com/arthur-debert/webinstall/pkg/config"
	"github.com/arthur-debert/webinstall/pkg/installer"
	"github.com/arthur-debert/webinstall/pkg/ui"
	"github.com/spf13/cobra"
)

// positionalKeys maps install arguments, in order, to configuration keys
var positionalKeys = []string{"root", "install_dir", "config_dir", "minifier"}

type installOptions struct {
	source     string
	gzip       bool
	brotli     bool
	configFile string
	format     string
}

func newInstallCmd() *cobra.Command {
	opts := &installOptions{}

	cmd := &cobra.Command{
		Use:   "install [ROOT [INSTALL_DIR [CONFIG_DIR [MINIFIER]]]]",
		Short: MsgInstallShort,
		Long:  MsgInstallLong,
		Example: `  # Install into the platform locations
  webinstall install

  # Stage a package tree without minifying
  webinstall install ./debian/tmp /usr/share/html5-client/www /etc/html5-client copy`,
		Args: cobra.MaximumNArgs(len(positionalKeys)),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ui.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			renderer, err := ui.NewRenderer(format, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			errRenderer, err := ui.NewRenderer(format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			cfg, err := config.Load(config.LoadOptions{
				Platform:   config.DetectPlatform(),
				ConfigFile: opts.configFile,
				Overrides:  installOverrides(cmd, opts, args),
			})
			if err != nil {
				return renderError(errRenderer, err)
			}

			report, installErr := installer.New(cfg).Install(cmd.Context())
			if report != nil {
				if err := renderer.RenderReport(report); err != nil {
					return err
				}
			}
			if installErr != nil {
				return renderError(errRenderer, installErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.source, "source", "", "Source tree to install (default from configuration)")
	cmd.Flags().BoolVar(&opts.gzip, "gzip", true, "Write .gz siblings")
	cmd.Flags().BoolVar(&opts.brotli, "brotli", true, "Write .br siblings when brotli is available")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Configuration file (TOML or YAML)")
	cmd.Flags().StringVar(&opts.format, "format", "auto", "Report format: auto, term, text or json")

	return cmd
}

// installOverrides collects the values given on the command line. Flags
// left at their defaults do not override lower configuration layers.
func installOverrides(cmd *cobra.Command, opts *installOptions, args []string) map[string]interface{} {
	overrides := make(map[string]interface{})
	for i, arg := range args {
		overrides[positionalKeys[i]] = arg
	}
	if cmd.Flags().Changed("source") {
		overrides["source_dir"] = opts.source
	}
	if cmd.Flags().Changed("gzip") {
		overrides["gzip"] = opts.gzip
	}
	if cmd.Flags().Changed("brotli") {
		overrides["brotli"] = opts.brotli
	}
	return overrides
}

// ReportedError is an error the command has already shown in the
// requested output format
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// IsReported reports whether err needs no further printing
func IsReported(err error) bool {
	var reported *ReportedError
	return stderrors.As(err, &reported)
}

func renderError(r ui.Renderer, err error) error {
	if rerr := r.RenderError(err); rerr != nil {
		return err
	}
	return &ReportedError{Err: err}
}
