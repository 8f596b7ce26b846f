package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagCredentials string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "StreamWeave conversational provisioning assistant",
	Long: `Talk to the StreamWeave assistant to provision data pipelines:
pick a source, select tables, confirm filters and costs, and create the
pipeline, all from your terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		if err := initTelemetry(cmd.Context()); err != nil {
			log.Warn().Err(err).Msg("Telemetry init failed, continuing without tracing")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCredentials, "credentials", "", "credentials file (default ~/.streamweave/credentials.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
