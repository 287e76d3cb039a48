package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-kiosk/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the kiosk SSH server",
	Long: `Start an SSH server where every connection takes one turn.

The SSH user name is the account. Only one connection controls a piece at a
time; others wait until the board is free. A player who stops pressing keys
loses the turn after the configured lease timeout.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses server.host_key from config, or ~/.kiosk/host_key

Examples:
  kiosk serve                           # Listen on the configured address
  kiosk serve --ssh :2222               # Listen on port 2222
  kiosk serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh alice@localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port), overrides config")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file, overrides config")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes, overrides config")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sshCfg := tui.SSHServerConfig{
		Address:      cfg.Server.Address,
		HostKeyPath:  cfg.Server.HostKey,
		IdleTimeout:  cfg.Server.IdleTimeout,
		LeaseTimeout: cfg.Server.LeaseTimeout,
		TickRate:     cfg.Timing.TickRate,
		TurnOptions:  turnOptions(cfg),
	}
	if flagSSHAddr != "" {
		sshCfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		sshCfg.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	server, err := tui.NewSSHServer(sshCfg, store, newLogger("kiosk-ssh"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Starting kiosk SSH server on %s\n", server.Addr())
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
