package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/fsops"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the discord-loader config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective settings to the config file",
	Long: `Write the settings resolved from flags and DLOADER_* environment variables to
the config file so later runs pick them up. An existing file is kept unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		path := s.ConfigFile
		if path == "" {
			if path, err = configFile(); err != nil {
				return err
			}
		}

		if err := config.WriteFile(fsops.NewRealFS(), path, s, configInitForce); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"path": path})
		}
		PrintSuccess(fmt.Sprintf("Wrote %s", path))
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(s)
		}

		data, err := config.Encode(s)
		if err != nil {
			return err
		}
		if s.ConfigFile != "" {
			_, _ = dimColor.Fprintf(cmd.OutOrStdout(), "# %s\n", s.ConfigFile)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
