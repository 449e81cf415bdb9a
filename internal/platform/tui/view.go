package tui

import (
	"fmt"
	"math"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
)

// Court cells smaller than this render a placeholder instead.
const (
	minCourtWidth  = 18
	minCourtHeight = 9
)

// courtAirX is how far the projection extends past the table edge on
// each side, enough to keep a paddle at its clamp limit on screen.
const courtAirX = 0.5

// CourtView projects the court onto a character grid seen from above:
// columns follow table width, rows follow table length. Participant 2
// sees the whole court rotated half a turn, so each player defends the
// bottom edge regardless of which seat the handshake assigned.
type CourtView struct {
	court       core.Court
	paddleHalfW float64
	screen      *core.Screen
}

// NewCourtView creates a view with the given cell budget.
func NewCourtView(court core.Court, paddleHalfW float64, width, height int) *CourtView {
	return &CourtView{
		court:       court,
		paddleHalfW: paddleHalfW,
		screen:      core.NewScreen(width, height),
	}
}

// Resize adjusts the cell budget after a terminal resize.
func (v *CourtView) Resize(width, height int) {
	v.screen.Resize(width, height)
}

// Render draws the snapshot and returns the court as a string. Marks
// are drawn as impact flashes at court positions.
func (v *CourtView) Render(snap netplay.CourtSnapshot, marks ...core.Vec3) string {
	s := v.screen
	s.Clear()

	w, h := s.Width(), s.Height()
	if w < minCourtWidth || h < minCourtHeight {
		s.DrawTextCentered(h/2, "terminal too small")
		return s.String()
	}

	flip := snap.Self == netplay.Participant2

	s.DrawBox(0, 0, w, h)

	// The box edges sit at the out-of-bounds limit, so the table end
	// lines fall inside them and the net crosses the middle.
	s.DrawHLine(1, v.row(v.court.HalfLength, h), w-2, '┈')
	s.DrawHLine(1, v.row(-v.court.HalfLength, h), w-2, '┈')
	netRow := v.row(0, h)
	s.Set(0, netRow, '├')
	s.Set(w-1, netRow, '┤')
	s.DrawHLine(1, netRow, w-2, '╌')

	v.drawPaddle(snap.PaddlePose(snap.Self.Other()), flip, '▒')
	v.drawPaddle(snap.PaddlePose(snap.Self), flip, '█')

	for _, m := range marks {
		col, row := v.cell(m, flip, w, h)
		s.Set(col, row, '✶')
	}

	if snap.Ball.Visible {
		r := '●'
		if snap.Ball.Pos.Y < v.court.TableHeight {
			r = '○'
		}
		col, row := v.cell(snap.Ball.Pos, flip, w, h)
		s.Set(col, row, r)
	}

	v.drawPhaseOverlay(snap.State, h)
	return s.String()
}

// drawPaddle renders a paddle as a horizontal bar centered on its pose.
func (v *CourtView) drawPaddle(pose core.Pose, flip bool, r rune) {
	s := v.screen
	w, h := s.Width(), s.Height()
	col, row := v.cell(pose.Pos, flip, w, h)

	cells := v.paddleCells(w)
	for i := 0; i < cells; i++ {
		s.Set(col-cells/2+i, row, r)
	}
}

// paddleCells converts the paddle's physical width to a cell count.
func (v *CourtView) paddleCells(w int) int {
	span := 2 * (v.court.HalfWidth + courtAirX)
	cells := int(math.Round(2 * v.paddleHalfW / span * float64(w-2)))
	if cells < 3 {
		cells = 3
	}
	return cells
}

// cell maps a court position to a screen cell inside the border.
func (v *CourtView) cell(pos core.Vec3, flip bool, w, h int) (int, int) {
	x, z := pos.X, pos.Z
	if flip {
		x, z = -x, -z
	}
	return v.colFor(x, w), v.row(z, h)
}

func (v *CourtView) colFor(x float64, w int) int {
	span := v.court.HalfWidth + courtAirX
	t := (x + span) / (2 * span)
	return 1 + int(math.Round(t*float64(w-3)))
}

func (v *CourtView) row(z float64, h int) int {
	span := v.court.HalfLength + v.court.BoundsMargin
	t := (span - z) / (2 * span)
	return 1 + int(math.Round(t*float64(h-3)))
}

// drawPhaseOverlay layers phase text over the court. Rallying needs no
// overlay; the ball is the message.
func (v *CourtView) drawPhaseOverlay(state netplay.MatchState, h int) {
	s := v.screen
	mid := h / 2
	switch state.Phase {
	case netplay.PhaseWaiting:
		s.DrawTextCentered(mid-1, "waiting for opponent")
	case netplay.PhaseCounting:
		if state.Countdown > 0 {
			s.DrawTextCentered(mid-1, fmt.Sprintf("- %d -", state.Countdown))
		}
	case netplay.PhaseScored:
		s.DrawTextCentered(mid-1, state.Status)
	case netplay.PhaseGameOver:
		s.DrawTextCentered(mid-2, "GAME OVER")
		s.DrawTextCentered(mid, state.Status)
	}
}
