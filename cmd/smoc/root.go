package main

import (
	"fmt"
	"os"

	"github.com/aretw0/smoc/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smoc",
	Short: "smoc joins guided conversations from the terminal",
	Long: `smoc starts a conversation from a flow URL and keeps its live session open,
answering the conversation from the terminal, as NDJSON, or through MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default ./"+config.DefaultFile+" when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
}

// loadConfig reads .env, the config file and the environment, then applies
// the flags shared by every command.
func loadConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if len(args) > 0 {
		cfg.FlowURL = args[0]
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}
	if f := cmd.Flags().Lookup("lang"); f != nil && f.Changed {
		cfg.Lang = f.Value.String()
	}
	if f := cmd.Flags().Lookup("metrics-addr"); f != nil && f.Changed {
		cfg.Metrics.Addr = f.Value.String()
	}
	if f := cmd.Flags().Lookup("redis-addr"); f != nil && f.Changed {
		cfg.Redis.Addr = f.Value.String()
	}
	if f := cmd.Flags().Lookup("redis-channel"); f != nil && f.Changed {
		cfg.Redis.Channel = f.Value.String()
	}

	if cfg.FlowURL == "" {
		return config.Config{}, fmt.Errorf("%w: no flow URL given (argument or %s)", config.ErrInvalidConfig, config.EnvFlowURL)
	}
	return cfg, nil
}

// addHostFlags registers the flags of commands that host a conversation.
func addHostFlags(cmd *cobra.Command) {
	cmd.Flags().String("lang", "", "UI language of the conversation (sv, en, ...)")
	cmd.Flags().String("metrics-addr", "", "Serve the HTTP API and /metrics on this address")
	cmd.Flags().String("redis-addr", "", "Publish conversation events to this redis server")
	cmd.Flags().String("redis-channel", "", "Redis channel for conversation events")
}
