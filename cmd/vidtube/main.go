package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidtube/backend/internal/app"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "vidtube",
	Short:        "Video sharing backend API",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status]",
	Short:     "Apply or list database migrations",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		command := "up"
		if len(args) > 0 {
			command = args[0]
		}
		return app.Migrate(cmd.Context(), command, cmd.OutOrStdout())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <name>",
	Short: "Load a seed file (e.g. dev)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Seed(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Maintain refresh-token sessions",
}

var purgeGrace time.Duration

var purgeSessionsCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired refresh-token sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.PurgeSessions(cmd.Context(), purgeGrace, cmd.OutOrStdout())
	},
}

func init() {
	purgeSessionsCmd.Flags().DurationVar(&purgeGrace, "grace", 0, "keep sessions that expired less than this long ago")
	sessionsCmd.AddCommand(purgeSessionsCmd)
	rootCmd.AddCommand(sessionsCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
