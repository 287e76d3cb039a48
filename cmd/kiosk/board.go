package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-kiosk/internal/core"
	"github.com/vovakirdan/tui-kiosk/internal/platform/tui"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
)

var flagPlain bool

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print the stored board",
	Long: `Print the shared board as it is stored, with score, level and the
upcoming pieces.

On a terminal the board is drawn in each owner's colour. With --plain, or
when piped, every cell is one ASCII character:

  #    wall
  .    empty
  A-Z  piece cell, lettered by owner in order of first appearance

Examples:
  kiosk board
  kiosk board --plain > board.txt`,
	Args: cobra.NoArgs,
	RunE: runBoard,
}

func init() {
	boardCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print ASCII without colours")
}

func runBoard(_ *cobra.Command, _ []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := cliContext()
	defer cancel()

	rec, err := store.LoadGame(ctx)
	switch {
	case errors.Is(err, stacker.ErrNotFound):
		fmt.Println("No game has been played yet.")
		return nil
	case errors.Is(err, stacker.ErrBoardDimensions), errors.Is(err, stacker.ErrCorruptBoard):
		return fmt.Errorf("%w\nthe stored board cannot be read; run 'kiosk reset --yes' to start over", err)
	case err != nil:
		return err
	}

	fmt.Println(boardHeader(rec))
	fmt.Println()

	if flagPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(asciiBoard(rec.Board).String())
		fmt.Printf("\nNext: %v  Reserve: %v\n", rec.Next, rec.Reserve)
		return nil
	}

	players, err := store.Players(ctx)
	if err != nil {
		return err
	}
	snap := stacker.Snapshot{
		Board:     rec.Board.Rows(),
		Width:     rec.Board.Width(),
		Height:    rec.Board.Height(),
		Score:     rec.Score,
		Highscore: rec.Highscore,
		Level:     rec.Level,
		Lines:     rec.Lines,
		Next:      rec.Next,
		Reserve:   rec.Reserve,
	}
	w, h := tui.ScreenSize(snap.Width, snap.Height)
	screen := core.NewScreen(w, h)
	tui.DrawBoard(screen, snap, tui.PaletteFrom(players))
	fmt.Println(tui.RenderScreen(screen))
	return nil
}

// boardHeader summarises the shared record above the board.
func boardHeader(rec stacker.GameRecord) string {
	return fmt.Sprintf("Score %s  High %s  Level %d  Lines %s  Revision %d  Board %dx%d (%d playable columns)",
		humanize.Comma(int64(rec.Score)), humanize.Comma(int64(rec.Highscore)),
		rec.Level, humanize.Comma(int64(rec.Lines)), rec.Revision,
		rec.Board.Width(), rec.Board.Height(), rec.Board.PlayableWidth())
}

// asciiBoard draws one character per cell. Owners get letters in order of
// first appearance, scanning top to bottom.
func asciiBoard(b *stacker.Board) *core.Screen {
	s := core.NewScreen(b.Width(), b.Height())
	letters := make(map[stacker.AccountID]rune)
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			c := b.At(x, y)
			switch {
			case c.IsWall():
				s.Set(x, y, '#')
			case c.IsEmpty():
				s.Set(x, y, '.')
			default:
				owner, _ := c.Owner()
				r, ok := letters[owner]
				if !ok {
					r = 'A' + rune(len(letters)%26)
					letters[owner] = r
				}
				s.Set(x, y, r)
			}
		}
	}
	return s
}
