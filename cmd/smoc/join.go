package main

import (
	"github.com/aretw0/smoc/internal/cli"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join [flow-url]",
	Short: "Join a conversation and answer it interactively",
	Long: `Starts the conversation behind the flow URL and follows its live session.
Choices are answered by number; type 'exit' to leave.

With --json the session is driven as NDJSON: events are written to Stdout
and one wire command per line is read from Stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		debug, _ := cmd.Flags().GetBool("debug")
		quiet, _ := cmd.Flags().GetBool("quiet")
		strict, _ := cmd.Flags().GetBool("strict")

		return cli.RunJoin(cli.JoinOptions{
			Config: cfg,
			JSON:   jsonMode,
			Debug:  debug,
			Quiet:  quiet,
			Strict: strict,
		})
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	addHostFlags(joinCmd)

	joinCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	joinCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and completion notices")
	joinCmd.Flags().Bool("strict", false, "Stop on the first protocol error")
}
