package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-kiosk/internal/platform/tui"
)

var (
	flagLifetime    bool
	flagLimit       int
	flagInteractive bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show player standings",
	Long: `Display players ranked by score for the current game, or across every
game with --lifetime.

Examples:
  kiosk leaderboard
  kiosk leaderboard --lifetime --limit 20
  kiosk leaderboard -i`,
	Args: cobra.NoArgs,
	RunE: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().BoolVar(&flagLifetime, "lifetime", false, "Rank by lifetime totals instead of the current game")
	leaderboardCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of players to show")
	leaderboardCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse in a scrollable table")
}

func runLeaderboard(_ *cobra.Command, _ []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if flagInteractive && term.IsTerminal(int(os.Stdout.Fd())) {
		return tui.RunScoreboard(store, flagLifetime)
	}

	ctx, cancel := cliContext()
	defer cancel()
	entries, err := store.TopPlayers(ctx, flagLimit, flagLifetime)
	if err != nil {
		return err
	}

	title := "Leaderboard - this game"
	if flagLifetime {
		title = "Leaderboard - all time"
	}
	fmt.Println(title)
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("Nobody has placed a block yet.")
		return nil
	}

	fmt.Printf("  %-4s  %-16s  %10s  %6s  %6s  %8s\n", "Rank", "Player", "Score", "Lines", "Blocks", "Points")
	fmt.Printf("  %-4s  %-16s  %10s  %6s  %6s  %8s\n", "----", "------", "-----", "-----", "------", "------")
	for i, e := range entries {
		fmt.Printf("  %-4d  %-16s  %10s  %6d  %6d  %8s\n",
			i+1, e.Name, humanize.Comma(int64(e.Score)), e.Lines, e.Blocks, humanize.Comma(int64(e.Points)))
	}
	return nil
}
