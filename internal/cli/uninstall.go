package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/engine"
)

var (
	uninstallKeepUser     bool
	uninstallKeepProfiles bool
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the loader and restore every release",
	Long: `Remove the invoker and temp directories, optionally the user and profiles
directories, and unpatch every patched release.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		req := &engine.UninstallRequest{
			KeepUser:     uninstallKeepUser,
			KeepProfiles: uninstallKeepProfiles,
		}

		result, err := eng.Uninstall(context.Background(), req)
		var batch *engine.BatchError
		if err != nil && !errors.As(err, &batch) {
			return err
		}

		if jsonOutput {
			if jsonErr := outputJSON(result); jsonErr != nil {
				return jsonErr
			}
			return err
		}

		for _, dir := range result.Removed {
			PrintSuccess(fmt.Sprintf("Removed %s", dir))
		}
		for _, name := range result.Unpatched {
			PrintSuccess(fmt.Sprintf("Unpatched %s", name))
		}
		if batch != nil {
			for _, f := range batch.Failures {
				PrintError(f.Error())
			}
		}
		return err
	},
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallKeepUser, "keep-user", false, "Keep loader/user")
	uninstallCmd.Flags().BoolVar(&uninstallKeepProfiles, "keep-profiles", false, "Keep loader/profiles")
}
