package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/tui-kiosk/internal/lobby"
	"github.com/vovakirdan/tui-kiosk/internal/stacker"
	"github.com/vovakirdan/tui-kiosk/internal/storage"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.kiosk/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// LeaseTimeout frees the board when a player stops pressing keys.
	LeaseTimeout time.Duration

	// TickRate is the interval between simulation ticks.
	TickRate time.Duration

	// TurnOptions are applied to every turn.
	TurnOptions []stacker.Option
}

// SSHServer wraps a Wish SSH server for the kiosk.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	store  *storage.Store
	lobby  *lobby.Lobby
	logger *log.Logger
}

// NewSSHServer creates a new SSH server playing turns against store.
// The caller keeps ownership of store.
func NewSSHServer(cfg SSHServerConfig, store *storage.Store, logger *log.Logger) (*SSHServer, error) {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "kiosk-ssh",
		})
	}

	srv := &SSHServer{
		config: cfg,
		store:  store,
		lobby:  lobby.New(cfg.LeaseTimeout),
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".kiosk", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler resolves the SSH user to an account and hosts one turn.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		wish.Fatalln(sess, "a terminal is required: connect with ssh -t")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(sess.Context(), 5*time.Second)
	defer cancel()
	account, err := s.store.ResolveAccount(ctx, sess.User())
	if err != nil {
		s.logger.Error("cannot resolve account", "user", sess.User(), "error", err)
		wish.Fatalln(sess, "cannot sign you in:", err)
		return nil, nil
	}

	model := NewModel(Options{
		Gateway:     s.store,
		Leaderboard: s.store,
		Lobby:       s.lobby,
		Account:     account,
		Name:        sess.User(),
		TurnOptions: s.config.TurnOptions,
		TickRate:    s.config.TickRate,
		Logger:      s.logger.With("user", sess.User()),
		Context:     sess.Context(),
		Width:       pty.Window.Width,
		Height:      pty.Window.Height,
	})

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		fields := []any{"user", sess.User(), "remote", sess.RemoteAddr().String()}
		if holder, ok := s.lobby.Current(); ok {
			fields = append(fields, "board_holder", holder.Name)
		}
		s.logger.Info("session started", fields...)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		s.logger.Error("server error", "error", err)
		return err
	}
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
