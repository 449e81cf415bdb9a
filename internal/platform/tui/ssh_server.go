// Package tui provides the terminal presentation layer: the court
// renderer, matchmaking screens, and SSH serving via Wish.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/google/uuid"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
	"github.com/liamharte04/EEECS-PingPong/internal/transport"
)

// sessionEventBuffer sizes each session's event queue. Snapshots are
// droppable, so this only needs to ride out render stalls.
const sessionEventBuffer = 64

// SSHServerConfig configures the matchmaking server.
type SSHServerConfig struct {
	// Address is the listen address, host:port.
	Address string

	// HostKeyPath points at the server's host key file. When empty a
	// key is generated under ~/.pingpong on first start.
	HostKeyPath string

	// IdleTimeout closes connections that go quiet for this long.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns the stock listen settings.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer hosts matchmaking and matches over SSH. Each connection
// gets a session in the registry; the coordinator pairs sessions into
// matches and runs both peers in-process over loopback links.
type SSHServer struct {
	config      SSHServerConfig
	game        config.Config
	server      *ssh.Server
	coordinator *netplay.Coordinator
	sessions    *netplay.SessionRegistry
	logger      *log.Logger
}

// NewSSHServer wires the registry, the coordinator, and the Wish server
// for the given settings.
func NewSSHServer(cfg SSHServerConfig, game config.Config) (*SSHServer, error) {
	keyPath, err := hostKeyFile(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pingpong-ssh",
	})

	sessions := netplay.NewSessionRegistry()
	coordinator := netplay.NewCoordinator(
		netplay.DefaultCoordinatorConfig(),
		game,
		func() (netplay.Transport, netplay.Transport, error) {
			host, joiner := transport.NewLoopbackPair(transport.DefaultQueueSize)
			return host, joiner, nil
		},
		sessions,
	)
	coordinator.SetLogger(logger)

	srv := &SSHServer{
		config:      cfg,
		game:        game,
		coordinator: coordinator,
		sessions:    sessions,
		logger:      logger,
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(keyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.sessionMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create ssh server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// hostKeyFile picks the host key location, falling back to a per-user
// default, and makes sure its directory exists so Wish can generate
// the key on first start.
func hostKeyFile(configured string) (string, error) {
	path := configured
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".pingpong", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create host key directory: %w", err)
	}
	return path, nil
}

// sessionCtxKey keys the netplay session handle in the SSH context.
type sessionCtxKey struct{}

// sessionMiddleware creates the coordinator-facing session for each
// connection and tears it down when the connection ends, so a dropped
// SSH link always reaches the coordinator as a disconnect.
func (s *SSHServer) sessionMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		id := netplay.SessionID(fmt.Sprintf("%s-%s", sshSession.User(), uuid.NewString()))
		session := netplay.NewChannelSession(id, sessionEventBuffer)
		s.sessions.Register(session)
		sshSession.Context().SetValue(sessionCtxKey{}, session)

		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"session", id,
			"active", s.sessions.Count(),
		)

		next(sshSession)

		s.coordinator.Send(netplay.SessionDisconnectedMsg{SessionID: id})
		s.sessions.Unregister(id)
		session.Close()

		s.logger.Info("session ended",
			"user", sshSession.User(),
			"session", id,
			"dropped_events", session.Drops(),
		)
	}
}

// teaHandler builds the Bubble Tea program for one SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	session, ok := sshSession.Context().Value(sessionCtxKey{}).(*netplay.ChannelSession)
	if !ok {
		s.logger.Error("session handle missing from context", "user", sshSession.User())
		return nil, nil
	}

	model := NewSessionModel(s.game, s.coordinator, session, pty.Window.Width, pty.Window.Height)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// ListenAndServe starts the coordinator and serves SSH until Shutdown
// is called or the listener fails.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("listening for players", "address", s.config.Address)
	s.coordinator.Start()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains live connections within the context deadline, then
// stops the coordinator.
func (s *SSHServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	err := s.server.Shutdown(ctx)
	s.coordinator.Stop()
	return err
}

// Addr returns the configured listen address.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// SessionModel manages one connection's full flow: lobby, match, and
// back to the lobby. This is the top-level model for SSH sessions.
type SessionModel struct {
	game        config.Config
	coordinator *netplay.Coordinator
	session     *netplay.ChannelSession
	width       int
	height      int

	lobby    LobbyModel
	match    *MatchModel
	inMatch  bool
	quitting bool
}

// NewSessionModel creates a session model starting in the lobby.
func NewSessionModel(
	game config.Config,
	coordinator *netplay.Coordinator,
	session *netplay.ChannelSession,
	width, height int,
) SessionModel {
	return SessionModel{
		game:        game,
		coordinator: coordinator,
		session:     session,
		width:       width,
		height:      height,
		lobby:       NewLobbyModel(session.ID(), coordinator, session.Events(), width, height),
	}
}

// Init starts the lobby flow.
func (m SessionModel) Init() tea.Cmd {
	return m.lobby.Init()
}

// Update routes messages to whichever screen is active.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Size changes apply to both screens.
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	if m.inMatch && m.match != nil {
		return m.updateMatch(msg)
	}
	return m.updateLobby(msg)
}

// updateLobby handles updates while in the matchmaking flow.
func (m SessionModel) updateLobby(msg tea.Msg) (tea.Model, tea.Cmd) {
	newLobby, cmd := m.lobby.Update(msg)
	if lobby, ok := newLobby.(LobbyModel); ok {
		m.lobby = lobby
	}

	if m.lobby.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	// Over SSH there is no screen above the lobby, so backing out of
	// it closes the connection.
	if m.lobby.BackToMenu() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.lobby.State() == LobbyStateInMatch {
		matchID := m.lobby.MatchID()
		side := m.lobby.Side()
		coordinator := m.coordinator
		sink := func(frame core.InputFrame) {
			coordinator.Send(netplay.PlayerInputMsg{
				MatchID: matchID,
				Player:  side,
				Input:   frame,
			})
		}

		match := NewMatchModel(m.game, side, sink, m.session.Events(), m.width, m.height)
		m.match = &match
		m.inMatch = true
		return m, m.match.Init()
	}

	return m, cmd
}

// updateMatch handles updates while a match is running.
func (m SessionModel) updateMatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMatch, cmd := m.match.Update(msg)
	if match, ok := newMatch.(MatchModel); ok {
		m.match = &match
	}

	if m.match.IsQuitting() {
		m.leaveMatch()
		m.quitting = true
		return m, tea.Quit
	}

	if m.match.BackToLobby() {
		m.leaveMatch()
		m.inMatch = false
		m.match = nil
		m.lobby = NewLobbyModel(m.session.ID(), m.coordinator, m.session.Events(), m.width, m.height)
		return m, m.lobby.Init()
	}

	return m, cmd
}

// leaveMatch tells the coordinator this session is walking away from a
// still-running match. A finished match needs no teardown.
func (m SessionModel) leaveMatch() {
	if m.match == nil || m.match.Result() != nil {
		return
	}
	m.coordinator.Send(netplay.LeaveMatchMsg{
		SessionID: m.session.ID(),
		MatchID:   m.lobby.MatchID(),
	})
}

// View draws whichever screen is active.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	if m.inMatch && m.match != nil {
		return m.match.View()
	}

	return m.lobby.View()
}
