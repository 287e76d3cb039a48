// kiosk runs the communal block-stacking game: one shared board, one piece
// per visitor.
//
// Usage:
//
//	kiosk play --account <name>  - Place one piece on the shared board
//	kiosk serve                  - Start SSH server, one turn per connection
//	kiosk board                  - Print the stored board
//	kiosk leaderboard            - Show session or lifetime standings
//	kiosk history                - Show recent turns
//	kiosk reset --yes            - Start a new game (operators only)
//
// Global flags:
//
//	--config <path>      - Kiosk config YAML (default: search ~/.kiosk/configs, ./configs)
//	--db <path>          - Override storage path from config
//	--seed <value>       - RNG seed for reproducible piece order
//	--difficulty <name>  - Preset: easy, normal, hard, fixed
//	--debug              - Verbose logging
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-kiosk/internal/config"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
	"github.com/vovakirdan/tui-kiosk/internal/storage"
)

// cliTimeout bounds one-shot commands against the database.
const cliTimeout = 10 * time.Second

var (
	// Global flags
	flagConfig     string
	flagDBPath     string
	flagSeed       int64
	flagDifficulty string
	flagDebug      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Kiosk - a shared block-stacking board, one piece per visitor",
	Long: `Kiosk keeps a single communal block-stacking game alive across many
short sessions. Every visitor places exactly one piece; cleared rows pay
out to everyone who owned a cell in them.

Available commands:
  play         - Take a turn in this terminal
  serve        - Start SSH server for remote turns
  board        - Print the stored board
  leaderboard  - Show standings
  history      - Show recent turns
  reset        - Start a fresh game

Examples:
  kiosk play --account alice
  kiosk serve --ssh :2222
  kiosk leaderboard --lifetime
  kiosk reset --yes`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to kiosk config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to game database (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadConfig resolves the config file and applies global flag overrides.
func loadConfig() (config.KioskConfig, error) {
	cfg, err := config.LoadKiosk(flagConfig)
	if err != nil {
		return cfg, err
	}
	preset, err := config.ParsePreset(flagDifficulty)
	if err != nil {
		return cfg, err
	}
	config.ApplyPreset(&cfg, preset)
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	return cfg, cfg.Validate()
}

// openStore loads config and opens the database it names.
func openStore() (config.KioskConfig, *storage.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, err
	}
	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return cfg, nil, fmt.Errorf("opening game database: %w", err)
	}
	return cfg, store, nil
}

func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if flagDebug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func newRand() *rand.Rand {
	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// turnOptions returns the engine options for cfg and the global flags.
func turnOptions(cfg config.KioskConfig) []stacker.Option {
	opts := cfg.TurnOptions()
	if flagSeed != 0 {
		opts = append(opts, stacker.WithRand(rand.New(rand.NewSource(flagSeed))))
	}
	return opts
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cliTimeout)
}
