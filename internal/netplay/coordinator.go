package netplay

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// Lobby is a one-seat waiting room: the host parks in it until exactly
// one joiner redeems the code, at which point it becomes a match.
type Lobby struct {
	Code      string
	Host      SessionHandle
	Joiner    SessionHandle
	CreatedAt time.Time
}

// CoordinatorConfig tunes lobby housekeeping.
type CoordinatorConfig struct {
	// LobbyTimeout is how long a lobby may sit without a joiner.
	LobbyTimeout time.Duration

	// CleanupPeriod is how often idle lobbies are swept.
	CleanupPeriod time.Duration
}

// DefaultCoordinatorConfig returns the stock housekeeping intervals.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		LobbyTimeout:  2 * time.Minute,
		CleanupPeriod: 30 * time.Second,
	}
}

// TransportFactory creates the linked transport pair for one match.
// The first end goes to the host's peer, the second to the joiner's.
// Injection keeps this package free of transport implementations.
type TransportFactory func() (host Transport, joiner Transport, err error)

// hostedMatch is one coordinator-run match: a peer per participant,
// joined by a transport pair, each streaming snapshots into its own
// session.
type hostedMatch struct {
	id   MatchID
	code string

	peer1 *Peer
	peer2 *Peer

	hostSession   SessionHandle
	joinerSession SessionHandle

	hostTransport   Transport
	joinerTransport Transport
}

// routeInput forwards a player's input frame to their peer.
func (m *hostedMatch) routeInput(player ParticipantID, input core.InputFrame) {
	if player == Participant2 {
		m.peer2.SendInput(input)
		return
	}
	m.peer1.SendInput(input)
}

// stopFor stops the peer belonging to sessionID. The surviving peer
// observes the dead link and winds the match down on its own.
func (m *hostedMatch) stopFor(sessionID SessionID) {
	switch sessionID {
	case m.hostSession.ID():
		m.peer1.Stop()
	case m.joinerSession.ID():
		m.peer2.Stop()
	}
}

func (m *hostedMatch) close() {
	m.peer1.Stop()
	m.peer2.Stop()
	_ = m.hostTransport.Close()
	_ = m.joinerTransport.Close()
}

// Coordinator pairs presentation sessions into matches. Sessions talk
// to it exclusively through Send; a single dispatch goroutine applies
// the messages, so handlers never race each other.
type Coordinator struct {
	config     CoordinatorConfig
	game       config.Config
	transports TransportFactory
	sessions   *SessionRegistry
	logger     *log.Logger

	mu      sync.RWMutex
	lobbies map[string]*Lobby
	matches map[MatchID]*hostedMatch

	sessionLobby map[SessionID]string
	sessionMatch map[SessionID]MatchID

	inbox chan CoordinatorMessage
	quit  chan struct{}
}

// NewCoordinator creates a coordinator. game carries the court,
// physics, and match rules every hosted match plays under.
func NewCoordinator(cfg CoordinatorConfig, game config.Config, transports TransportFactory, sessions *SessionRegistry) *Coordinator {
	return &Coordinator{
		config:       cfg,
		game:         game,
		transports:   transports,
		sessions:     sessions,
		logger:       log.New(io.Discard),
		lobbies:      make(map[string]*Lobby),
		matches:      make(map[MatchID]*hostedMatch),
		sessionLobby: make(map[SessionID]string),
		sessionMatch: make(map[SessionID]MatchID),
		inbox:        make(chan CoordinatorMessage, 256),
		quit:         make(chan struct{}),
	}
}

// SetLogger installs a logger for match lifecycle events.
func (c *Coordinator) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Start launches the dispatch and housekeeping goroutines.
func (c *Coordinator) Start() {
	go c.dispatchLoop()
	go c.expiryLoop()
}

// Stop shuts the coordinator down.
func (c *Coordinator) Stop() {
	close(c.quit)
}

// Send queues a message for dispatch. Safe from any goroutine.
func (c *Coordinator) Send(msg CoordinatorMessage) {
	select {
	case c.inbox <- msg:
	case <-c.quit:
	}
}

func (c *Coordinator) dispatchLoop() {
	for {
		select {
		case msg := <-c.inbox:
			c.dispatch(msg)
		case <-c.quit:
			return
		}
	}
}

func (c *Coordinator) dispatch(msg CoordinatorMessage) {
	switch m := msg.(type) {
	case CreateLobbyMsg:
		c.createLobby(m)
	case JoinLobbyMsg:
		c.joinLobby(m)
	case CancelLobbyMsg:
		c.cancelLobby(m)
	case LeaveLobbyMsg:
		c.leaveLobby(m)
	case LeaveMatchMsg:
		c.leaveMatch(m)
	case PlayerInputMsg:
		c.routeInput(m)
	case SessionDisconnectedMsg:
		c.sessionGone(m)
	}
}

func (c *Coordinator) createLobby(msg CreateLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	if _, busy := c.sessionLobby[msg.SessionID]; busy {
		c.mu.Unlock()
		session.Send(LobbyErrorEvent{Message: "Already in a lobby"})
		return
	}

	code := c.newLobbyCode()
	c.lobbies[code] = &Lobby{
		Code:      code,
		Host:      session,
		CreatedAt: time.Now(),
	}
	c.sessionLobby[msg.SessionID] = code
	c.mu.Unlock()

	session.Send(LobbyCreatedEvent{Code: code})
}

func (c *Coordinator) joinLobby(msg JoinLobbyMsg) {
	session, ok := c.sessions.Get(msg.SessionID)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.sessionLobby[msg.SessionID]; busy {
		session.Send(LobbyErrorEvent{Message: "Already in a lobby"})
		return
	}

	lobby, exists := c.lobbies[strings.ToUpper(msg.Code)]
	switch {
	case !exists:
		session.Send(LobbyErrorEvent{Message: "Lobby not found"})
		return
	case lobby.Joiner != nil:
		session.Send(LobbyErrorEvent{Message: "Lobby is full"})
		return
	case lobby.Host.ID() == msg.SessionID:
		session.Send(LobbyErrorEvent{Message: "Cannot join your own lobby"})
		return
	}

	lobby.Joiner = session
	c.sessionLobby[msg.SessionID] = lobby.Code

	lobby.Host.Send(LobbyJoinedEvent{
		Code:       lobby.Code,
		Side:       Participant1,
		OpponentID: msg.SessionID,
	})
	session.Send(LobbyJoinedEvent{
		Code:       lobby.Code,
		Side:       Participant2,
		OpponentID: lobby.Host.ID(),
	})

	c.startMatch(lobby)
}

// startMatch turns a filled lobby into a running match. Caller holds
// the lock.
func (c *Coordinator) startMatch(lobby *Lobby) {
	hostTransport, joinerTransport, err := c.transports()
	if err != nil {
		c.logger.Error("failed to create match transports", "err", err)
		lobby.Host.Send(LobbyErrorEvent{Message: "Failed to start match"})
		lobby.Joiner.Send(LobbyErrorEvent{Message: "Failed to start match"})
		return
	}

	matchID := MatchID(fmt.Sprintf("match-%s", uuid.NewString()))

	peer1 := NewPeer(PeerOptions{
		Self:      Participant1,
		MatchID:   matchID,
		Config:    c.game,
		Transport: hostTransport,
		Session:   lobby.Host,
		Logger:    c.logger.With("match", matchID, "side", Participant1),
	})
	peer2 := NewPeer(PeerOptions{
		Self:      Participant2,
		MatchID:   matchID,
		Config:    c.game,
		Transport: joinerTransport,
		Session:   lobby.Joiner,
		Logger:    c.logger.With("match", matchID, "side", Participant2),
	})

	match := &hostedMatch{
		id:              matchID,
		code:            lobby.Code,
		peer1:           peer1,
		peer2:           peer2,
		hostSession:     lobby.Host,
		joinerSession:   lobby.Joiner,
		hostTransport:   hostTransport,
		joinerTransport: joinerTransport,
	}

	hostID := lobby.Host.ID()
	joinerID := lobby.Joiner.ID()
	c.matches[matchID] = match
	c.sessionMatch[hostID] = matchID
	c.sessionMatch[joinerID] = matchID
	delete(c.sessionLobby, hostID)
	delete(c.sessionLobby, joinerID)
	delete(c.lobbies, lobby.Code)

	lobby.Host.Send(MatchStartedEvent{MatchID: matchID, Side: Participant1, Code: lobby.Code})
	lobby.Joiner.Send(MatchStartedEvent{MatchID: matchID, Side: Participant2, Code: lobby.Code})

	c.logger.Info("match started", "match", matchID, "code", lobby.Code)

	// Both loops report through the same callback; the first result
	// wins and the second finds the match already gone.
	onComplete := func(result MatchResult) {
		c.matchEnded(matchID, result)
	}
	go peer1.Run(onComplete)
	go peer2.Run(onComplete)
}

func (c *Coordinator) matchEnded(matchID MatchID, result MatchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	match, exists := c.matches[matchID]
	if !exists {
		return
	}

	delete(c.sessionMatch, match.hostSession.ID())
	delete(c.sessionMatch, match.joinerSession.ID())
	delete(c.matches, matchID)
	match.close()

	c.logger.Info("match ended",
		"match", matchID,
		"reason", result.Reason,
		"score", fmt.Sprintf("%d-%d", result.Score1, result.Score2),
		"ticks", result.Ticks,
	)

	endEvent := MatchEndedEvent{
		MatchID: matchID,
		Reason:  result.Reason,
		Winner:  result.Winner,
		Score1:  result.Score1,
		Score2:  result.Score2,
	}
	match.hostSession.Send(endEvent)
	match.joinerSession.Send(endEvent)
}

// closeLobby tears a lobby down on the host's behalf: the joiner, if
// any, is notified and released. Caller holds the lock.
func (c *Coordinator) closeLobby(lobby *Lobby) {
	if lobby.Joiner != nil {
		lobby.Joiner.Send(MatchEndedEvent{Reason: MatchEndReasonHostLeft})
		delete(c.sessionLobby, lobby.Joiner.ID())
	}
	delete(c.lobbies, lobby.Code)
	delete(c.sessionLobby, lobby.Host.ID())
}

// dropJoiner releases a lobby's joiner seat and tells the host. Caller
// holds the lock.
func (c *Coordinator) dropJoiner(lobby *Lobby) {
	delete(c.sessionLobby, lobby.Joiner.ID())
	lobby.Joiner = nil
	lobby.Host.Send(LobbyPlayerLeftEvent{Code: lobby.Code})
}

func (c *Coordinator) cancelLobby(msg CancelLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, exists := c.lobbies[msg.Code]
	if !exists || lobby.Host.ID() != msg.SessionID {
		return
	}
	c.closeLobby(lobby)
}

func (c *Coordinator) leaveLobby(msg LeaveLobbyMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lobby, exists := c.lobbies[msg.Code]
	if !exists {
		return
	}
	switch {
	case lobby.Joiner != nil && lobby.Joiner.ID() == msg.SessionID:
		c.dropJoiner(lobby)
	case lobby.Host.ID() == msg.SessionID:
		c.closeLobby(lobby)
	}
}

func (c *Coordinator) leaveMatch(msg LeaveMatchMsg) {
	c.mu.RLock()
	match, exists := c.matches[msg.MatchID]
	c.mu.RUnlock()

	if exists {
		match.stopFor(msg.SessionID)
	}
}

func (c *Coordinator) routeInput(msg PlayerInputMsg) {
	c.mu.RLock()
	match, exists := c.matches[msg.MatchID]
	c.mu.RUnlock()

	if exists {
		match.routeInput(msg.Player, msg.Input)
	}
}

// sessionGone handles a session vanishing outright, wherever it was:
// its lobby is closed or vacated, and its match peer is stopped.
func (c *Coordinator) sessionGone(msg SessionDisconnectedMsg) {
	c.mu.Lock()
	if code, ok := c.sessionLobby[msg.SessionID]; ok {
		if lobby, exists := c.lobbies[code]; exists {
			if lobby.Host.ID() == msg.SessionID {
				c.closeLobby(lobby)
			} else if lobby.Joiner != nil && lobby.Joiner.ID() == msg.SessionID {
				c.dropJoiner(lobby)
			}
		}
		delete(c.sessionLobby, msg.SessionID)
	}
	matchID, inMatch := c.sessionMatch[msg.SessionID]
	match := c.matches[matchID]
	c.mu.Unlock()

	if inMatch && match != nil {
		match.stopFor(msg.SessionID)
	}
}

func (c *Coordinator) expiryLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expireIdleLobbies()
		case <-c.quit:
			return
		}
	}
}

// expireIdleLobbies sweeps lobbies whose host has waited past the
// timeout with no joiner.
func (c *Coordinator) expireIdleLobbies() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-c.config.LobbyTimeout)
	for code, lobby := range c.lobbies {
		if lobby.Joiner == nil && lobby.CreatedAt.Before(cutoff) {
			lobby.Host.Send(LobbyErrorEvent{Message: "Lobby expired"})
			delete(c.sessionLobby, lobby.Host.ID())
			delete(c.lobbies, code)
		}
	}
}

// newLobbyCode draws codes until one is free. Caller holds the lock.
func (c *Coordinator) newLobbyCode() string {
	for {
		code := generateJoinCode()
		if _, taken := c.lobbies[code]; !taken {
			return code
		}
	}
}

// codeAlphabet omits characters players misread over voice or screen
// share: 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// joinCodeLength is how many characters a lobby code carries.
const joinCodeLength = 6

// generateJoinCode returns a short uppercase code for pairing two
// sessions.
func generateJoinCode() string {
	b := make([]byte, joinCodeLength)
	if _, err := rand.Read(b); err != nil {
		// Clock-derived stand-in when the random source is unavailable.
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}

// GetLobby returns a lobby by code.
func (c *Coordinator) GetLobby(code string) (*Lobby, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lobbies[strings.ToUpper(code)]
	return l, ok
}

// GetMatch reports whether a match is live.
func (c *Coordinator) GetMatch(id MatchID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.matches[id]
	return ok
}

// LobbyCount returns the number of open lobbies.
func (c *Coordinator) LobbyCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lobbies)
}

// MatchCount returns the number of running matches.
func (c *Coordinator) MatchCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.matches)
}
