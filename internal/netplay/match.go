package netplay

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// scoredPause is the beat between a point being scored and the next
// countdown, long enough to read the score change.
const scoredPause = time.Second

// MachineEffect is a side effect requested by the match machine. The
// peer loop executes effects in order; the machine itself never
// touches the world, the ledger, or the transport.
type MachineEffect interface {
	machineEffect()
}

// EffectBroadcast asks the peer to replicate the full match state.
type EffectBroadcast struct {
	State MatchState
}

// EffectSpawnBall asks the peer to create the rally ball and seed its
// ownership with the serving participant.
type EffectSpawnBall struct {
	Server   ParticipantID
	ObjectID string
}

// EffectDestroyBall asks the peer to remove the rally ball.
type EffectDestroyBall struct{}

// EffectClearCooldowns asks the peer to lift transfer cooldowns, used
// when a rally is torn down by a disconnect.
type EffectClearCooldowns struct{}

func (EffectBroadcast) machineEffect()      {}
func (EffectSpawnBall) machineEffect()      {}
func (EffectDestroyBall) machineEffect()    {}
func (EffectClearCooldowns) machineEffect() {}

// MatchMachine is the authoritative match state machine. Only the
// session authority (participant 1's peer) runs one; everyone else
// holds a replicated MatchState copy. All timing is deadline-based and
// driven from Tick, so behavior is deterministic under a synthetic
// clock.
type MatchMachine struct {
	rules config.MatchConfig
	court core.Court

	state MatchState

	// deadline is the next timed transition; zero when the current
	// phase waits on an event instead.
	deadline       time.Time
	countdownLeft  int
	gameOverNotice bool

	present [3]bool // indexed by ParticipantID
}

// NewMatchMachine creates a machine in the Waiting phase with the
// first serve assigned to participant 1.
func NewMatchMachine(rules config.MatchConfig, court core.Court) *MatchMachine {
	return &MatchMachine{
		rules: rules,
		court: court,
		state: MatchState{
			Phase:        PhaseWaiting,
			Server:       Participant1,
			WinThreshold: rules.WinThreshold,
			Status:       "Waiting for opponent",
			Rev:          1,
		},
	}
}

// State returns a copy of the current match state.
func (m *MatchMachine) State() MatchState {
	return m.state
}

// Phase returns the current phase.
func (m *MatchMachine) Phase() Phase {
	return m.state.Phase
}

// bump advances the revision and returns a broadcast effect carrying
// the updated state. Every mutation goes through here so replicas can
// rely on Rev strictly increasing.
func (m *MatchMachine) bump() MachineEffect {
	m.state.Rev++
	return EffectBroadcast{State: m.state}
}

// SetPresent records a participant joining or leaving. Both
// participants present in Waiting starts the countdown; a departure in
// any phase tears the match down to Waiting.
func (m *MatchMachine) SetPresent(id ParticipantID, present bool, now time.Time) []MachineEffect {
	if !id.Valid() {
		return nil
	}
	was := m.present[id]
	m.present[id] = present
	if was == present {
		return nil
	}

	if !present {
		return m.interrupt(now)
	}
	if m.state.Phase == PhaseWaiting && m.bothPresent() {
		return m.enterCounting(now)
	}
	return nil
}

func (m *MatchMachine) bothPresent() bool {
	return m.present[Participant1] && m.present[Participant2]
}

// interrupt forces the match back to Waiting, destroying any ball and
// lifting cooldowns. Scores survive; a fresh pair of participants gets
// a fresh machine from the coordinator anyway.
func (m *MatchMachine) interrupt(now time.Time) []MachineEffect {
	effects := []MachineEffect{}
	if m.state.BallObjectID != "" {
		effects = append(effects, EffectDestroyBall{}, EffectClearCooldowns{})
	}
	m.state.Phase = PhaseWaiting
	m.state.Countdown = 0
	m.state.BallObjectID = ""
	m.state.Status = "Waiting for opponent"
	m.deadline = time.Time{}
	return append(effects, m.bump())
}

// Tick advances deadline-based transitions. It must be called every
// simulation tick on the authority.
func (m *MatchMachine) Tick(now time.Time) []MachineEffect {
	if m.deadline.IsZero() || now.Before(m.deadline) {
		return nil
	}

	switch m.state.Phase {
	case PhaseCounting:
		m.countdownLeft--
		if m.countdownLeft > 0 {
			m.state.Countdown = m.countdownLeft
			m.state.Status = fmt.Sprintf("Serving in %d", m.countdownLeft)
			m.deadline = m.deadline.Add(m.countdownStep())
			return []MachineEffect{m.bump()}
		}
		return m.enterServing(now)

	case PhaseScored:
		if m.state.Winner.Valid() {
			return m.enterGameOver(now)
		}
		return m.enterCounting(now)

	case PhaseGameOver:
		if !m.gameOverNotice {
			m.gameOverNotice = true
			m.state.Status = "New game starting..."
			m.deadline = m.deadline.Add(time.Duration(m.rules.ResetNoticeMs) * time.Millisecond)
			return []MachineEffect{m.bump()}
		}
		m.state.Score1 = 0
		m.state.Score2 = 0
		m.state.Winner = NoParticipant
		m.state.Server = Participant1
		if m.bothPresent() {
			return m.enterCounting(now)
		}
		m.state.Phase = PhaseWaiting
		m.state.Status = "Waiting for opponent"
		m.deadline = time.Time{}
		return []MachineEffect{m.bump()}
	}
	return nil
}

func (m *MatchMachine) countdownStep() time.Duration {
	return time.Duration(m.rules.CountdownStepMs) * time.Millisecond
}

func (m *MatchMachine) enterCounting(now time.Time) []MachineEffect {
	m.state.Phase = PhaseCounting
	m.countdownLeft = m.rules.CountdownSteps
	m.state.Countdown = m.countdownLeft
	m.state.BallObjectID = ""
	m.state.Status = fmt.Sprintf("Serving in %d", m.countdownLeft)
	m.deadline = now.Add(m.countdownStep())
	return []MachineEffect{m.bump()}
}

func (m *MatchMachine) enterServing(now time.Time) []MachineEffect {
	m.state.Phase = PhaseServing
	m.state.Countdown = 0
	m.state.BallObjectID = uuid.NewString()
	m.state.Status = fmt.Sprintf("%s to serve", m.state.Server)
	m.deadline = time.Time{}
	return []MachineEffect{
		EffectSpawnBall{Server: m.state.Server, ObjectID: m.state.BallObjectID},
		m.bump(),
	}
}

// ServeTriggered moves Serving to Rallying. Only the designated server
// may trigger it; anything else is ignored.
func (m *MatchMachine) ServeTriggered(by ParticipantID, now time.Time) []MachineEffect {
	if m.state.Phase != PhaseServing || by != m.state.Server {
		return nil
	}
	m.state.Phase = PhaseRallying
	m.state.Status = "Rally on"
	m.deadline = time.Time{}
	return []MachineEffect{m.bump()}
}

// RallyEnded resolves a finished rally from the ball's exit position.
// The credited participant is a pure function of the exit side: a ball
// leaving toward a participant's half scores for the opponent. Repeat
// reports for the same rally are ignored by the phase guard, so the
// zone trigger and the owner's out-of-bounds report cannot double
// score.
func (m *MatchMachine) RallyEnded(exit core.Vec3, now time.Time) []MachineEffect {
	if m.state.Phase != PhaseRallying {
		return nil
	}

	credit := m.court.CreditFor(exit)
	m.state.addPoint(credit)
	m.state.Server = credit
	m.state.Phase = PhaseScored
	m.state.Countdown = 0
	m.state.BallObjectID = ""
	if m.state.Score(credit) >= m.state.WinThreshold {
		m.state.Winner = credit
	}
	m.state.Status = fmt.Sprintf("Point to %s (%s)", credit, m.state.ScoreLine())
	m.deadline = now.Add(scoredPause)
	return []MachineEffect{EffectDestroyBall{}, m.bump()}
}

func (m *MatchMachine) enterGameOver(now time.Time) []MachineEffect {
	m.state.Phase = PhaseGameOver
	m.gameOverNotice = false
	m.state.Status = fmt.Sprintf("%s wins %s", m.state.Winner, m.state.ScoreLine())
	m.deadline = now.Add(time.Duration(m.rules.WinnerBannerMs) * time.Millisecond)
	return []MachineEffect{m.bump()}
}
