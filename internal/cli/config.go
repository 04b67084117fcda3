package cli

import (
	"io"

	"github.com/arthur-debert/webinstall/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	var (
		format     string
		configFile string
		defaults   bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Long:  MsgConfigLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := io.WriteString(cmd.OutOrStdout(), config.DefaultsContent())
				return err
			}
			cfg, err := config.Load(config.LoadOptions{
				Platform:   config.DetectPlatform(),
				ConfigFile: configFile,
			})
			if err != nil {
				return err
			}
			data, err := cfg.Render(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml or yaml")
	cmd.Flags().StringVar(&configFile, "config", "", "Configuration file (TOML or YAML)")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Print the built-in defaults file instead")

	return cmd
}
