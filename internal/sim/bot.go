package sim

import "math"

// Bot produces input frames for a computer-controlled participant.
// It tracks the ball laterally with imperfect reaction and serves after
// a short hesitation, so a solo player gets a playable opponent.
type Bot struct {
	// Skill in (0, 1]: fraction of the ideal correction applied per
	// tick. Higher tracks tighter.
	Skill float64

	// ServeDelayTicks is how long the bot waits before serving.
	ServeDelayTicks int

	serveWait int
}

// NewBot returns a bot with moderate skill.
func NewBot() *Bot {
	return &Bot{Skill: 0.7, ServeDelayTicks: 25}
}

// BotDecision is what the bot wants to do this tick, expressed as
// lateral intent rather than raw actions so the caller can map it onto
// input frames.
type BotDecision struct {
	MoveLeft  bool
	MoveRight bool
	Serve     bool
}

// Decide computes the bot's intent. ballX/ballApproaching describe the
// ball relative to the bot's side; paddleX is the bot's current lateral
// position; canServe is true while the match waits on the bot's serve.
func (b *Bot) Decide(ballX, paddleX float64, ballApproaching, canServe bool) BotDecision {
	var d BotDecision

	if canServe {
		b.serveWait++
		if b.serveWait >= b.ServeDelayTicks {
			b.serveWait = 0
			d.Serve = true
		}
		return d
	}
	b.serveWait = 0

	// Only chase a ball coming toward us; otherwise drift home
	target := 0.0
	if ballApproaching {
		target = ballX
	}

	diff := target - paddleX
	deadZone := 0.06 + (1-b.Skill)*0.12
	if math.Abs(diff) < deadZone {
		return d
	}
	if diff < 0 {
		d.MoveLeft = true
	} else {
		d.MoveRight = true
	}
	return d
}
