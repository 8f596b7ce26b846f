package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamweave/streamweave/assistant/internal/auth"
	"github.com/streamweave/streamweave/assistant/internal/config"
)

var (
	flagAccessToken  string
	flagRefreshToken string
	flagLegacyToken  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials and verify them against the platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagAccessToken == "" && flagLegacyToken == "" {
			return fmt.Errorf("either --access-token/--refresh-token or --legacy-token is required")
		}

		cfg := config.Load()
		api := auth.NewClient(cfg.API.BaseURL, cfg.API.Timeout)

		token, legacy := flagAccessToken, false
		if flagLegacyToken != "" {
			token, legacy = flagLegacyToken, true
		}
		user, err := api.Me(cmd.Context(), token, legacy)
		if err != nil {
			return fmt.Errorf("verify credentials: %w", err)
		}

		path, err := credentialsPath()
		if err != nil {
			return err
		}
		creds := &auth.Credentials{
			AccessToken:  flagAccessToken,
			RefreshToken: flagRefreshToken,
			LegacyToken:  flagLegacyToken,
		}
		if err := auth.SaveCredentials(path, creds); err != nil {
			return err
		}

		log.Info().Str("email", user.Email).Str("path", path).Msg("🔓 Logged in")
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	},
}

func credentialsPath() (string, error) {
	if flagCredentials != "" {
		return flagCredentials, nil
	}
	return auth.DefaultCredentialsPath()
}

func init() {
	loginCmd.Flags().StringVar(&flagAccessToken, "access-token", "", "access token from the dashboard")
	loginCmd.Flags().StringVar(&flagRefreshToken, "refresh-token", "", "refresh token from the dashboard")
	loginCmd.Flags().StringVar(&flagLegacyToken, "legacy-token", "", "legacy bearer session string")
	rootCmd.AddCommand(loginCmd)
}
