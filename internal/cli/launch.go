package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/config"
	"github.com/danieljhkim/discord-loader/internal/engine"
)

var launchNoWait bool

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch Discord into a profile",
	Long: `Start Discord with a session for the selected profile. The loader must already
be installed. By default the command waits for Discord to exit and returns its exit code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := newEngine(cmd)
		if err != nil {
			return err
		}

		installed, err := eng.Installed()
		if err != nil {
			return err
		}
		if !installed {
			return fmt.Errorf("loader is not installed in %s; run 'discord-loader install' first", eng.Layout().Loader)
		}

		return launchAndWait(context.Background(), eng, s, !launchNoWait)
	},
}

// runDefault installs or updates the loader, then launches the configured
// profile and waits for the host to exit.
func runDefault(cmd *cobra.Command, args []string) error {
	eng, s, err := newEngine(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := eng.InstallOrUpdate(ctx)
	var batch *engine.BatchError
	if errors.As(err, &batch) {
		// Some releases could not be patched; the latest one may still work.
		for _, f := range batch.Failures {
			PrintWarning(f.Error())
		}
	} else if err != nil {
		return err
	}
	if result != nil && !jsonOutput {
		PrintInfo(fmt.Sprintf("%s: %s patched", result.Mode, PrintCount(len(result.Patched), "release", "releases")))
	}

	return launchAndWait(ctx, eng, s, true)
}

type launchOutput struct {
	SessionID string   `json:"sessionId"`
	Profile   string   `json:"profile"`
	Debug     bool     `json:"debug"`
	Command   []string `json:"command"`
	Pid       int      `json:"pid"`
	ExitCode  *int     `json:"exitCode,omitempty"`
}

func launchAndWait(ctx context.Context, eng *engine.Engine, s config.Settings, wait bool) error {
	res, err := eng.Launch(ctx, &engine.LaunchRequest{
		Profile: s.Profile,
		Debug:   s.Debug,
	})
	if err != nil {
		return err
	}

	out := launchOutput{
		SessionID: res.Session.ID.String(),
		Profile:   res.Session.Profile,
		Debug:     res.Session.Debug,
		Command:   append([]string{res.Command.Path}, res.Command.Args...),
		Pid:       res.Process.Pid(),
	}

	if !jsonOutput {
		PrintSuccess(fmt.Sprintf("Launched profile %s (pid %d)", out.Profile, out.Pid))
	}

	if wait {
		code, err := res.Process.Wait()
		if err != nil {
			return fmt.Errorf("failed to wait for Discord: %w", err)
		}
		out.ExitCode = &code
	}

	if jsonOutput {
		if err := outputJSON(out); err != nil {
			return err
		}
	}

	if out.ExitCode != nil && *out.ExitCode != 0 {
		return &ExitError{Code: *out.ExitCode}
	}
	return nil
}

func init() {
	launchCmd.Flags().BoolVar(&launchNoWait, "no-wait", false, "Return once Discord has started")
}
