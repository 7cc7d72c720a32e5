package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation status",
	Long: `Display the loader installation, the patch state of every Discord release,
the known profiles, invoker files that differ from the packaged copy and any
session waiting to be consumed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(cmd)
		if err != nil {
			return err
		}

		result, err := eng.Status(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection("Installation")
		PrintLabelValue("Discord", result.HostDir)
		if result.Installed {
			PrintLabelValue("Loader", "installed")
		} else {
			PrintLabelValue("Loader", "not installed")
		}
		if result.Latest != "" {
			PrintLabelValue("Latest", result.Latest)
		}

		PrintSection("Releases")
		if len(result.Releases) == 0 {
			PrintEmptyState("No releases found")
		} else {
			rows := make([][]string, 0, len(result.Releases))
			for _, r := range result.Releases {
				rows = append(rows, []string{r.Name, r.Version, stateLabel(r.State)})
			}
			PrintTable([]string{"RELEASE", "VERSION", "STATE"}, rows)
		}

		if !result.Installed {
			return nil
		}

		PrintSection(fmt.Sprintf("Profiles (%s)", PrintCount(len(result.Profiles), "profile", "profiles")))
		if len(result.Profiles) == 0 {
			PrintEmptyState("No profiles yet")
		} else {
			PrintList(result.Profiles, 1)
		}

		if len(result.Drift) > 0 {
			PrintSection("Invoker drift")
			for _, d := range result.Drift {
				if d.Missing() {
					PrintWarning(fmt.Sprintf("%s is missing", d.File))
				} else {
					PrintWarning(fmt.Sprintf("%s differs (%s)", d.File, d.Actual.Encoded()[:12]))
				}
			}
			PrintInfo("Run 'discord-loader update' to restore the packaged files.")
		}

		if p := result.PendingSession; p != nil {
			PrintSection("Pending session")
			PrintLabelValue("ID", p.ID.String())
			PrintLabelValue("Profile", p.Profile)
			PrintLabelValue("Launched", p.LaunchedAt.Format("2006-01-02 15:04:05"))
		}

		return nil
	},
}
