package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/engine"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the loader and patch every release",
	Long: `Extract the loader tree into <appdir>/loader, create the profiles and temp
directories, and patch every installed Discord release. Existing user files are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.Install(context.Background())
		return reportInstall(result, err)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the invoker files and patch every release",
	Long: `Overwrite <appdir>/loader/invoker with the packaged files and patch every
release, including releases Discord installed since the last run. Existing files
under <appdir>/loader/user are never touched; a missing user directory is restored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.Update(context.Background())
		return reportInstall(result, err)
	},
}

// reportInstall prints what a batch did, including partial results of a
// batch that failed for some releases.
func reportInstall(result *engine.InstallResult, err error) error {
	var batch *engine.BatchError
	if err != nil && !errors.As(err, &batch) {
		return err
	}

	if jsonOutput && result != nil {
		if jsonErr := outputJSON(result); jsonErr != nil {
			return jsonErr
		}
		return err
	}

	if result != nil {
		for _, p := range result.Patched {
			PrintSuccess(fmt.Sprintf("Patched %s", p.Release))
		}
		for _, name := range result.Skipped {
			PrintWarning(fmt.Sprintf("Skipped %s (no app.asar)", name))
		}
		if len(result.Patched) == 0 && len(result.Skipped) == 0 {
			PrintWarning("No Discord releases found")
		}
	}
	if batch != nil {
		for _, f := range batch.Failures {
			PrintError(f.Error())
		}
	}
	return err
}
