package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/discord-loader/internal/loader"
	"github.com/danieljhkim/discord-loader/internal/session"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Show the file an l-data:// URL maps to",
	Long: `Resolve a virtual resource URL the way the loader does for the configured
profile, for example l-data://user/~PROFILE~/theme.css.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, s, err := newEngine(cmd)
		if err != nil {
			return err
		}

		sess := session.New(eng.Layout(), s.Profile, s.Debug, time.Now())
		path, err := loader.NewResolver(sess, nil).Resolve(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(map[string]string{"url": args[0], "path": path})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}
