package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent turns",
	Long: `List the most recent turns, newest first, with the piece placed, lines
cleared and points scored.

Examples:
  kiosk history
  kiosk history --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 10, "Number of turns to show")
}

func runHistory(_ *cobra.Command, _ []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cliContext()
	defer cancel()
	turns, err := store.RecentTurns(ctx, flagHistoryLimit)
	if err != nil {
		return err
	}

	if len(turns) == 0 {
		fmt.Println("No turns recorded yet.")
		return nil
	}

	fmt.Printf("  %-16s  %-5s  %5s  %8s  %s\n", "Player", "Piece", "Lines", "Points", "When")
	fmt.Printf("  %-16s  %-5s  %5s  %8s  %s\n", "------", "-----", "-----", "------", "----")
	for _, t := range turns {
		when := humanize.Time(t.CreatedAt)
		if t.GameOver {
			when += "  (game over)"
		}
		fmt.Printf("  %-16s  %-5s  %5d  %8s  %s\n",
			t.AccountName, t.Kind, t.Lines, humanize.Comma(int64(t.Points)), when)
	}
	return nil
}
