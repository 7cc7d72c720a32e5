package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/config"
)

var (
	// Global flags
	jsonOutput bool
	configPath string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for discord-loader.
var rootCmd = &cobra.Command{
	Use:     "discord-loader",
	Version: "dev",
	Short:   "Patch Discord to boot a profile-scoped loader",
	Long: `discord-loader patches every installed Discord release so that a loader runs
before the app, then launches Discord into an isolated profile.

Run without a command to install or update the loader and launch the configured profile.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDefault,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc renders help with colored section and group titles.
func customHelpFunc(cmd *cobra.Command, args []string) {
	var b strings.Builder

	intro := cmd.Long
	if intro == "" {
		intro = cmd.Short
	}
	if intro != "" {
		b.WriteString(intro + "\n\n")
	}

	b.WriteString(sectionTitleColor.Sprint("Usage:") + "\n")
	fmt.Fprintf(&b, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		writeCommands(&b, groupTitleColor.Sprint(group.Title), cmd.Commands(), group.ID)
	}
	writeCommands(&b, sectionTitleColor.Sprint("Additional Commands:"), cmd.Commands(), "")

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailablePersistentFlags() {
		b.WriteString(sectionTitleColor.Sprint("Flags:") + "\n")
		b.WriteString(cmd.LocalFlags().FlagUsages())
		b.WriteString(cmd.InheritedFlags().FlagUsages())
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	_, _ = fmt.Fprint(cmd.OutOrStdout(), b.String())
}

// writeCommands lists the visible commands of one group under title.
// Nothing is written when the group is empty.
func writeCommands(b *strings.Builder, title string, cmds []*cobra.Command, groupID string) {
	var lines []string
	for _, c := range cmds {
		if c.GroupID == groupID && !c.Hidden {
			lines = append(lines, fmt.Sprintf("  %-11s %s\n", c.Name(), c.Short))
		}
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, l := range lines {
		b.WriteString(l)
	}
	b.WriteString("\n")
}

func newCompletionCmd() *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate the autocompletion script for the specified shell",
		Long: `Generate the autocompletion script for discord-loader for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}

	shells := []struct {
		name string
		gen  func(io.Writer) error
	}{
		{"bash", rootCmd.GenBashCompletion},
		{"zsh", rootCmd.GenZshCompletion},
		{"fish", func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) }},
		{"powershell", rootCmd.GenPowerShellCompletionWithDesc},
	}
	for _, sh := range shells {
		gen := sh.gen
		completionCmd.AddCommand(&cobra.Command{
			Use:                   sh.name,
			Short:                 "Generate the autocompletion script for " + sh.name,
			Args:                  cobra.NoArgs,
			DisableFlagsInUseLine: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return gen(cmd.OutOrStdout())
			},
		})
	}
	return completionCmd
}

func init() {
	rootCmd.SetHelpFunc(customHelpFunc)

	// Loader settings are bound into viper per command
	flags := rootCmd.PersistentFlags()
	flags.String("appdir", "", "Discord installation directory (auto-detected when empty)")
	flags.String("profile", config.DefaultProfile, "Profile to launch")
	flags.Bool("debug", false, "Launch the latest release directly and log verbosely")
	flags.String("resources", "", "Serve loader resources from this directory instead of the embedded copy")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&configPath, "config", "", "Config file (default $DLOADER_CONFIG or the user config dir)")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddGroup(
		&cobra.Group{ID: "loader-lifecycle", Title: "Loader Lifecycle:"},
		&cobra.Group{ID: "launching", Title: "Launching:"},
		&cobra.Group{ID: "configuration", Title: "Configuration:"},
		&cobra.Group{ID: "cli-tooling", Title: "CLI & Tooling:"},
	)

	helpCmd := &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := rootCmd.Find(args)
			if err != nil {
				return err
			}
			return target.Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the discord-loader version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}

	groups := map[string][]*cobra.Command{
		"loader-lifecycle": {installCmd, updateCmd, uninstallCmd},
		"launching":        {launchCmd, statusCmd, resolveCmd},
		"configuration":    {configCmd},
		"cli-tooling":      {versionCmd, helpCmd, newCompletionCmd()},
	}
	for id, cmds := range groups {
		for _, c := range cmds {
			c.GroupID = id
			if c != helpCmd {
				rootCmd.AddCommand(c)
			}
		}
	}
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
