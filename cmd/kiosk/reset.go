package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a fresh game",
	Long: `Discard the current board and start a new game. The highscore and
every player's lifetime totals are kept; session totals are zeroed.

This is also the way out when the stored board no longer matches the
configured size or cannot be decoded.

Examples:
  kiosk reset --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagYes, "yes", false, "Confirm the reset")
}

func runReset(_ *cobra.Command, _ []string) error {
	if !flagYes {
		return errors.New("refusing to reset without --yes")
	}

	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cliContext()
	defer cancel()
	if err := store.ResetGame(ctx, cfg.Board.Width, cfg.Board.Height, newRand()); err != nil {
		return err
	}

	newLogger("kiosk").Info("game reset", "width", cfg.Board.Width, "height", cfg.Board.Height)
	fmt.Println("A new game has started.")
	return nil
}
