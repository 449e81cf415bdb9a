package tui

import (
	"fmt"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
)

// LobbyState tracks where a session is in the matchmaking flow.
type LobbyState int

const (
	LobbyStateChooseMode  LobbyState = iota // choose host or join
	LobbyStateHostWaiting                   // hosting, waiting for a challenger
	LobbyStateEnterCode                     // typing a join code
	LobbyStateJoinWaiting                   // join request sent, waiting
	LobbyStateInMatch                       // match started, hand off to the match model
)

// joinCodeLength matches the codes the coordinator hands out.
const joinCodeLength = 6

// LobbyModel walks a session from the mode choice through pairing to
// the start of a match. Coordinator replies arrive on the session event
// channel; the model re-arms the listener after each one.
type LobbyModel struct {
	state       LobbyState
	width       int
	height      int
	sessionID   netplay.SessionID
	coordinator *netplay.Coordinator
	events      <-chan netplay.SessionEvent

	// Host side.
	lobbyCode string

	// Join side.
	codeInput string
	joinError string

	// Set once a match starts.
	matchID netplay.MatchID
	side    netplay.ParticipantID

	backToMenu bool
	quitting   bool
}

// NewLobbyModel creates a lobby model for one session.
func NewLobbyModel(
	sessionID netplay.SessionID,
	coordinator *netplay.Coordinator,
	events <-chan netplay.SessionEvent,
	width, height int,
) LobbyModel {
	return LobbyModel{
		state:       LobbyStateChooseMode,
		width:       width,
		height:      height,
		sessionID:   sessionID,
		coordinator: coordinator,
		events:      events,
	}
}

// Init starts listening for coordinator events.
func (m LobbyModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that blocks on the next session event.
func (m LobbyModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		if m.events == nil {
			return nil
		}
		evt, ok := <-m.events
		if !ok {
			return nil
		}
		return evt
	}
}

// Update advances the flow on key presses and coordinator replies.
func (m LobbyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case netplay.LobbyCreatedEvent:
		m.lobbyCode = msg.Code
		m.state = LobbyStateHostWaiting
		return m, m.waitForEvent()

	case netplay.LobbyJoinedEvent:
		m.side = msg.Side
		return m, m.waitForEvent()

	case netplay.LobbyErrorEvent:
		m.joinError = msg.Message
		if m.state == LobbyStateJoinWaiting {
			m.state = LobbyStateEnterCode
		}
		return m, m.waitForEvent()

	case netplay.LobbyPlayerLeftEvent:
		return m, m.waitForEvent()

	case netplay.MatchStartedEvent:
		m.matchID = msg.MatchID
		m.side = msg.Side
		m.state = LobbyStateInMatch
		return m, nil

	case netplay.SessionEvent:
		// Stale match traffic from a previous game.
		return m, m.waitForEvent()
	}

	return m, nil
}

func (m LobbyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.leave()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case LobbyStateChooseMode:
		return m.handleChooseModeKey(msg)
	case LobbyStateHostWaiting:
		return m.handleHostWaitingKey(msg)
	case LobbyStateEnterCode:
		return m.handleEnterCodeKey(msg)
	case LobbyStateJoinWaiting:
		return m.handleJoinWaitingKey(msg)
	}

	return m, nil
}

func (m LobbyModel) handleChooseModeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "h", "H":
		m.coordinator.Send(netplay.CreateLobbyMsg{SessionID: m.sessionID})
		return m, m.waitForEvent()
	case "j", "J":
		m.state = LobbyStateEnterCode
		m.codeInput = ""
		m.joinError = ""
		return m, nil
	case "esc", "b":
		m.backToMenu = true
		return m, nil
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m LobbyModel) handleHostWaitingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b":
		m.coordinator.Send(netplay.CancelLobbyMsg{SessionID: m.sessionID, Code: m.lobbyCode})
		m.state = LobbyStateChooseMode
		m.lobbyCode = ""
		return m, nil
	case "q":
		m.coordinator.Send(netplay.CancelLobbyMsg{SessionID: m.sessionID, Code: m.lobbyCode})
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m LobbyModel) handleEnterCodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "esc":
		m.state = LobbyStateChooseMode
		return m, nil
	case "enter":
		if m.codeInput != "" {
			m.state = LobbyStateJoinWaiting
			m.joinError = ""
			m.coordinator.Send(netplay.JoinLobbyMsg{SessionID: m.sessionID, Code: m.codeInput})
			return m, m.waitForEvent()
		}
	case "backspace":
		if m.codeInput != "" {
			m.codeInput = m.codeInput[:len(m.codeInput)-1]
		}
	default:
		// Typed or pasted characters. Codes are upper-case letters and
		// digits, anything else is ignored.
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				if len(m.codeInput) >= joinCodeLength {
					break
				}
				r = unicode.ToUpper(r)
				if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
					m.codeInput += string(r)
				}
			}
		}
	}

	return m, nil
}

func (m LobbyModel) handleJoinWaitingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if s := msg.String(); s == "esc" || s == "b" {
		m.coordinator.Send(netplay.LeaveLobbyMsg{SessionID: m.sessionID, Code: m.codeInput})
		m.state = LobbyStateEnterCode
		return m, nil
	}
	return m, nil
}

// leave backs out of whatever the lobby is holding open for this
// session so a quit never strands the opposite side.
func (m LobbyModel) leave() {
	switch m.state {
	case LobbyStateHostWaiting:
		m.coordinator.Send(netplay.CancelLobbyMsg{SessionID: m.sessionID, Code: m.lobbyCode})
	case LobbyStateJoinWaiting:
		m.coordinator.Send(netplay.LeaveLobbyMsg{SessionID: m.sessionID, Code: m.codeInput})
	}
}

// View renders the current lobby screen.
func (m LobbyModel) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case LobbyStateChooseMode:
		body = m.viewChooseMode()
	case LobbyStateHostWaiting:
		body = m.viewHostWaiting()
	case LobbyStateEnterCode:
		body = m.viewEnterCode()
	case LobbyStateJoinWaiting:
		body = m.viewJoinWaiting()
	case LobbyStateInMatch:
		body = m.viewMatchStarting()
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m LobbyModel) viewChooseMode() string {
	return scoreStyle.Render("PING PONG") + "\n\n" +
		"[h] host a match\n" +
		"[j] join with a code\n\n" +
		mutedStyle.Render("esc: back, q: quit")
}

func (m LobbyModel) viewHostWaiting() string {
	return scoreStyle.Render("HOSTING") + "\n\n" +
		"share this code with your opponent:\n\n" +
		scoreStyle.Render(fmt.Sprintf("[ %s ]", m.lobbyCode)) + "\n\n" +
		"waiting for a challenger...\n\n" +
		mutedStyle.Render("esc: cancel, q: quit")
}

func (m LobbyModel) viewEnterCode() string {
	display := m.codeInput
	if len(display) < joinCodeLength {
		display += "_" + strings.Repeat(" ", joinCodeLength-1-len(m.codeInput))
	}

	body := scoreStyle.Render("JOIN") + "\n\n" +
		"enter the match code:\n\n" +
		scoreStyle.Render(fmt.Sprintf("[ %s ]", display)) + "\n"

	if m.joinError != "" {
		body += "\n" + rivalStyle.Render(m.joinError) + "\n"
	}

	return body + "\n" + mutedStyle.Render("enter: connect, esc: back")
}

func (m LobbyModel) viewJoinWaiting() string {
	return scoreStyle.Render("CONNECTING") + "\n\n" +
		fmt.Sprintf("joining match %s...\n\n", m.codeInput) +
		mutedStyle.Render("esc: cancel")
}

func (m LobbyModel) viewMatchStarting() string {
	seat := "you play first and serve"
	if m.side == netplay.Participant2 {
		seat = "you play second"
	}
	return scoreStyle.Render("MATCH FOUND") + "\n\n" + seat
}

// State returns the current lobby state.
func (m LobbyModel) State() LobbyState {
	return m.state
}

// BackToMenu reports whether the user backed out of the lobby.
func (m LobbyModel) BackToMenu() bool {
	return m.backToMenu
}

// IsQuitting reports whether the user asked to quit entirely.
func (m LobbyModel) IsQuitting() bool {
	return m.quitting
}

// MatchID returns the started match's identifier.
func (m LobbyModel) MatchID() netplay.MatchID {
	return m.matchID
}

// Side returns which participant this session plays.
func (m LobbyModel) Side() netplay.ParticipantID {
	return m.side
}
