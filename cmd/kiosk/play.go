package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-kiosk/internal/platform/tui"
)

var flagAccount string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take a turn on the shared board",
	Long: `Place one piece on the shared board from this terminal.

First-time accounts pick a colour before their piece appears. The turn ends
when the piece locks; quitting earlier leaves the board untouched.

Controls:
  Left/Right, A/D  - Move
  Up/X, Z          - Rotate clockwise / counter-clockwise
  Down/S           - Soft drop
  Space            - Hard drop
  C/Tab            - Swap with reserve (once per turn)
  Q/Esc            - Quit

Examples:
  kiosk play --account alice
  kiosk play --account bob --difficulty hard`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagAccount, "account", os.Getenv("USER"), "Account name to play as")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	if flagAccount == "" {
		return errors.New("an account name is required: use --account")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal")
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cliContext()
	account, err := store.ResolveAccount(ctx, flagAccount)
	cancel()
	if err != nil {
		return err
	}

	logger := newLogger("kiosk")
	// The alt screen owns stdout; only warnings reach the terminal afterwards.
	if !flagDebug {
		logger.SetLevel(log.WarnLevel)
	}

	err = tui.Run(tui.Options{
		Gateway:     store,
		Leaderboard: store,
		Account:     account,
		Name:        flagAccount,
		TurnOptions: turnOptions(cfg),
		TickRate:    cfg.Timing.TickRate,
		Logger:      logger,
		Context:     cmd.Context(),
		Width:       width,
		Height:      height,
	})
	if err != nil {
		return fmt.Errorf("turn ended with an error: %w", err)
	}
	return nil
}
