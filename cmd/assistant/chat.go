package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamweave/streamweave/assistant/internal/auth"
	"github.com/streamweave/streamweave/assistant/internal/config"
	"github.com/streamweave/streamweave/assistant/internal/realtime"
	"github.com/streamweave/streamweave/assistant/pkg/models"
	"github.com/streamweave/streamweave/assistant/pkg/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the realtime channel and talk to the assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := credentialsPath()
		if err != nil {
			return err
		}
		creds, err := auth.LoadCredentials(path)
		if err != nil {
			return fmt.Errorf("no stored credentials, run `assistant login` first: %w", err)
		}

		cfg := config.Load()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sess, err := session.New(cfg, session.Options{
			OnMessage:     printMessage,
			OnNotice:      func(text string) { fmt.Println("⚠ " + text) },
			OnStateChange: printStateChange,
		})
		if err != nil {
			return err
		}
		defer sess.Stop()
		defer shutdownTelemetry(context.Background())

		if creds.LegacyToken != "" {
			err = sess.SignInLegacy(ctx, creds.LegacyToken)
		} else {
			err = sess.SignIn(ctx, creds.AccessToken, creds.RefreshToken)
		}
		if err != nil {
			return err
		}

		if err := sess.Start(ctx); err != nil {
			return fmt.Errorf("open channel: %w", err)
		}

		go func() {
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan
			log.Info().Msg("🛑 Shutting down")
			cancel()
			sess.SignOut(context.Background())
			os.Exit(0)
		}()

		fmt.Printf("Connected as %s. Type a message, or /quit to leave.\n", sess.User().Email)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
				continue
			case line == "/quit":
				sess.SignOut(ctx)
				return nil
			case line == "/reset":
				sess.Workflow().Reset()
				fmt.Println("Workflow context cleared.")
				continue
			}
			if err := sess.Send(line); err != nil {
				log.Warn().Err(err).Msg("Message not sent")
			}
		}
		return scanner.Err()
	},
}

func printMessage(msg models.ChatMessage) {
	prefix := "assistant"
	if msg.Role == models.RoleSystem {
		prefix = "system"
	}
	if msg.Role == models.RoleUser {
		return // the user just typed it
	}
	fmt.Printf("\n[%s] %s\n", prefix, msg.Content)
	for _, action := range msg.Actions {
		fmt.Printf("  [step] %s\n", action.Type)
	}
}

func printStateChange(s realtime.State) {
	log.Debug().Str("state", s.String()).Msg("Channel state changed")
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
