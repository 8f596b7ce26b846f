// StreamWeave Assistant: terminal client for the conversational pipeline
// provisioning assistant.
//
// Commands:
//   - login    store credentials and verify them against /auth/me
//   - chat     open the realtime channel and talk to the assistant
//   - analyze  run the data-quality classifier over preview samples
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
