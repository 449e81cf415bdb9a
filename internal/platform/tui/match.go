package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
)

// matchChromeRows is the header, status, and help rows around the court.
const matchChromeRows = 3

// maxCourtWidth keeps the court from stretching into a ribbon on wide
// terminals.
const maxCourtWidth = 44

// contactFlashTicks is how many snapshots an impact marker stays up.
const contactFlashTicks = 6

var (
	scoreStyle  = lipgloss.NewStyle().Bold(true)
	youStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	rivalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// MatchModel drives one side of a live match. Key presses feed the
// input sink immediately and rendering follows the snapshot stream, so
// the terminal never runs ahead of the simulation.
type MatchModel struct {
	view   *CourtView
	keys   MatchKeyMap
	help   help.Model
	self   netplay.ParticipantID
	sink   func(core.InputFrame)
	events <-chan netplay.SessionEvent

	snapshot netplay.CourtSnapshot
	haveSnap bool

	flashPos   core.Vec3
	flashTicks int

	result *netplay.MatchEndedEvent

	width       int
	height      int
	leaveQuits  bool
	backToLobby bool
	quitting    bool
}

// NewMatchModel creates a model for one participant's side of a match.
// The sink receives input frames; events is the session stream the
// peer publishes snapshots on.
func NewMatchModel(
	game config.Config,
	self netplay.ParticipantID,
	sink func(core.InputFrame),
	events <-chan netplay.SessionEvent,
	width, height int,
) MatchModel {
	court := netplay.CourtFromConfig(game.Court)
	m := MatchModel{
		keys:   DefaultMatchKeyMap(),
		help:   help.New(),
		self:   self,
		sink:   sink,
		events: events,
		width:  width,
		height: height,
	}
	cw, ch := m.courtSize()
	m.view = NewCourtView(court, game.Paddle.HalfWidth, cw, ch)
	return m
}

// QuitOnLeave makes the leave binding quit the program instead of
// signaling a lobby return. Used when the match is the whole program.
func (m MatchModel) QuitOnLeave() MatchModel {
	m.leaveQuits = true
	return m
}

// Init starts listening for session events.
func (m MatchModel) Init() tea.Cmd {
	return m.waitForEvent()
}

// waitForEvent returns a command that blocks on the next session event.
func (m MatchModel) waitForEvent() tea.Cmd {
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

// Update consumes key presses and the session event stream.
func (m MatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Resize(m.courtSize())
		return m, nil

	case netplay.SnapshotEvent:
		m.snapshot = msg.Snapshot
		m.haveSnap = true
		if m.flashTicks > 0 {
			m.flashTicks--
		}
		return m, m.waitForEvent()

	case netplay.ContactEvent:
		m.flashPos = msg.Pos
		m.flashTicks = contactFlashTicks
		return m, m.waitForEvent()

	case netplay.MatchEndedEvent:
		m.result = &msg
		return m, nil

	case netplay.SessionEvent:
		// Lobby chatter has no meaning mid-match.
		return m, m.waitForEvent()
	}

	return m, nil
}

// handleKey forwards paddle actions to the sink and watches for the
// leave and quit bindings.
func (m MatchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.backToLobby = true
		if m.leaveQuits {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.result != nil {
		return m, nil
	}

	if action := m.keys.ActionFor(msg); action != core.ActionNone {
		frame := core.NewInputFrame()
		frame.Set(action)
		if m.sink != nil {
			m.sink(frame)
		}
	}

	return m, nil
}

// courtSize returns the cell budget for the court itself.
func (m MatchModel) courtSize() (int, int) {
	w := m.width
	if w > maxCourtWidth {
		w = maxCourtWidth
	}
	h := m.height - matchChromeRows
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// View renders the header, the court, the status line, and help.
func (m MatchModel) View() string {
	if m.quitting {
		return ""
	}
	if m.result != nil {
		return m.viewResult()
	}
	if !m.haveSnap {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			mutedStyle.Render("connecting..."))
	}

	var marks []core.Vec3
	if m.flashTicks > 0 {
		marks = append(marks, m.flashPos)
	}

	center := func(s string) string {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s)
	}

	court := m.view.Render(m.snapshot, marks...)

	return center(m.headerLine()) + "\n" +
		center(court) + "\n" +
		center(m.statusLine()) + "\n" +
		center(m.help.View(m.keys))
}

// headerLine shows the score from the local player's perspective, with
// a dot marking whose simulation the ball currently lives in.
func (m MatchModel) headerLine() string {
	st := m.snapshot.State
	mine := st.Score(m.self)
	theirs := st.Score(m.self.Other())

	you := "you"
	rival := "opponent"
	if m.snapshot.Owner == m.self {
		you = "you ●"
	} else if m.snapshot.Owner == m.self.Other() {
		rival = "● opponent"
	}

	return youStyle.Render(you) +
		scoreStyle.Render(fmt.Sprintf("  %d : %d  ", mine, theirs)) +
		rivalStyle.Render(rival)
}

// statusLine shows the phase text, with a serve prompt when it is the
// local player's ball.
func (m MatchModel) statusLine() string {
	st := m.snapshot.State
	text := st.Status
	if st.Phase == netplay.PhaseServing && st.Server == m.self {
		text = "your serve, press space"
	}
	return statusStyle.Render(text)
}

// viewResult renders the post-match screen.
func (m MatchModel) viewResult() string {
	r := m.result

	mine, theirs := r.Score1, r.Score2
	if m.self == netplay.Participant2 {
		mine, theirs = theirs, mine
	}

	var outcome string
	switch {
	case r.Winner == m.self:
		outcome = youStyle.Render(fmt.Sprintf("you win %d : %d", mine, theirs))
	case r.Winner.Valid():
		outcome = rivalStyle.Render(fmt.Sprintf("opponent wins %d : %d", theirs, mine))
	default:
		outcome = mutedStyle.Render(fmt.Sprintf("match over %d : %d", mine, theirs))
	}

	lines := scoreStyle.Render("MATCH OVER") + "\n\n" + outcome
	if r.Reason != netplay.MatchEndReasonCompleted {
		lines += "\n" + mutedStyle.Render(r.Reason.String())
	}
	hint := "esc: back to lobby, q: quit"
	if m.leaveQuits {
		hint = "esc or q: quit"
	}
	lines += "\n\n" + mutedStyle.Render(hint)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, lines)
}

// BackToLobby reports whether the user asked to leave the match.
func (m MatchModel) BackToLobby() bool {
	return m.backToLobby
}

// IsQuitting reports whether the user asked to quit entirely.
func (m MatchModel) IsQuitting() bool {
	return m.quitting
}

// Result returns the match outcome once one arrived.
func (m MatchModel) Result() *netplay.MatchEndedEvent {
	return m.result
}
