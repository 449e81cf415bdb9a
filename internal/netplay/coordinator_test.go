package netplay

import (
	"strings"
	"testing"
	"time"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
)

func newTestCoordinator() (*Coordinator, *SessionRegistry) {
	reg := NewSessionRegistry()
	factory := func() (Transport, Transport, error) {
		a, b := newPipePair()
		return a, b, nil
	}
	c := NewCoordinator(DefaultCoordinatorConfig(), config.Default(), factory, reg)
	return c, reg
}

// nextEvent pops an already-buffered event. The coordinator handlers
// send synchronously, so anything they emit is waiting by the time the
// handler returns.
func nextEvent(t *testing.T, s *ChannelSession) SessionEvent {
	t.Helper()
	select {
	case evt := <-s.Events():
		return evt
	default:
		t.Fatal("expected a buffered session event, got none")
		return nil
	}
}

// waitMatchEnded scans past snapshot traffic until the match-ended
// notification arrives from the peer goroutines.
func waitMatchEnded(t *testing.T, s *ChannelSession) MatchEndedEvent {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt := <-s.Events():
			if e, ok := evt.(MatchEndedEvent); ok {
				return e
			}
		case <-deadline:
			t.Fatal("timed out waiting for MatchEndedEvent")
		}
	}
}

func TestCoordinatorLobbyLifecycle(t *testing.T) {
	c, reg := newTestCoordinator()
	host := NewChannelSession("host", 64)
	joiner := NewChannelSession("joiner", 64)
	reg.Register(host)
	reg.Register(joiner)

	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	created, ok := nextEvent(t, host).(LobbyCreatedEvent)
	if !ok {
		t.Fatal("host did not receive LobbyCreatedEvent")
	}
	if len(created.Code) != 6 {
		t.Fatalf("lobby code = %q, expected 6 characters", created.Code)
	}
	if c.LobbyCount() != 1 {
		t.Fatalf("LobbyCount() = %d, expected 1", c.LobbyCount())
	}

	// Join with the lowercased code; lookups are case-insensitive.
	c.joinLobby(JoinLobbyMsg{SessionID: joiner.ID(), Code: strings.ToLower(created.Code)})

	hj, ok := nextEvent(t, host).(LobbyJoinedEvent)
	if !ok || hj.Side != Participant1 {
		t.Fatalf("host LobbyJoinedEvent = %+v, %v", hj, ok)
	}
	jj, ok := nextEvent(t, joiner).(LobbyJoinedEvent)
	if !ok || jj.Side != Participant2 {
		t.Fatalf("joiner LobbyJoinedEvent = %+v, %v", jj, ok)
	}

	hs, ok := nextEvent(t, host).(MatchStartedEvent)
	if !ok || hs.Side != Participant1 || hs.Code != created.Code {
		t.Fatalf("host MatchStartedEvent = %+v, %v", hs, ok)
	}
	js, ok := nextEvent(t, joiner).(MatchStartedEvent)
	if !ok || js.Side != Participant2 {
		t.Fatalf("joiner MatchStartedEvent = %+v, %v", js, ok)
	}
	if hs.MatchID != js.MatchID {
		t.Fatalf("match ids differ: %q vs %q", hs.MatchID, js.MatchID)
	}
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() after start = %d, expected 0", c.LobbyCount())
	}
	if c.MatchCount() != 1 {
		t.Fatalf("MatchCount() = %d, expected 1", c.MatchCount())
	}

	// Host leaves; the joiner's peer notices the departure and winds the
	// match down, which tears everything down on the coordinator.
	c.leaveMatch(LeaveMatchMsg{SessionID: host.ID(), MatchID: hs.MatchID})

	ended := waitMatchEnded(t, joiner)
	if ended.Reason != MatchEndReasonDisconnect {
		t.Errorf("end reason = %v, expected %v", ended.Reason, MatchEndReasonDisconnect)
	}
	if c.MatchCount() != 0 {
		t.Errorf("MatchCount() after end = %d, expected 0", c.MatchCount())
	}
	if c.GetMatch(hs.MatchID) {
		t.Error("GetMatch() still finds the ended match")
	}
}

func TestCoordinatorJoinErrors(t *testing.T) {
	c, reg := newTestCoordinator()
	host := NewChannelSession("host", 16)
	other := NewChannelSession("other", 16)
	reg.Register(host)
	reg.Register(other)

	c.joinLobby(JoinLobbyMsg{SessionID: other.ID(), Code: "NOPE99"})
	if evt, ok := nextEvent(t, other).(LobbyErrorEvent); !ok || evt.Message != "Lobby not found" {
		t.Fatalf("event = %+v, expected lobby-not-found error", evt)
	}

	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	created := nextEvent(t, host).(LobbyCreatedEvent)

	c.joinLobby(JoinLobbyMsg{SessionID: host.ID(), Code: created.Code})
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || evt.Message != "Already in a lobby" {
		t.Fatalf("event = %+v, expected already-in-a-lobby error", evt)
	}

	c.createLobby(CreateLobbyMsg{SessionID: other.ID()})
	otherCode := nextEvent(t, other).(LobbyCreatedEvent).Code
	c.joinLobby(JoinLobbyMsg{SessionID: host.ID(), Code: otherCode})
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || evt.Message != "Already in a lobby" {
		t.Fatalf("event = %+v, expected already-in-a-lobby error for the host", evt)
	}

	if c.LobbyCount() != 2 {
		t.Errorf("LobbyCount() = %d, expected both lobbies untouched", c.LobbyCount())
	}
}

func TestCoordinatorCancelLobby(t *testing.T) {
	c, reg := newTestCoordinator()
	host := NewChannelSession("host", 16)
	stranger := NewChannelSession("stranger", 16)
	reg.Register(host)
	reg.Register(stranger)

	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	code := nextEvent(t, host).(LobbyCreatedEvent).Code

	// Only the host may cancel.
	c.cancelLobby(CancelLobbyMsg{SessionID: stranger.ID(), Code: code})
	if c.LobbyCount() != 1 {
		t.Fatalf("LobbyCount() = %d, a stranger cancelled the lobby", c.LobbyCount())
	}

	c.cancelLobby(CancelLobbyMsg{SessionID: host.ID(), Code: code})
	if c.LobbyCount() != 0 {
		t.Fatalf("LobbyCount() = %d, expected 0 after cancel", c.LobbyCount())
	}

	// The host is free to open a new lobby afterwards.
	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	if _, ok := nextEvent(t, host).(LobbyCreatedEvent); !ok {
		t.Error("host could not create a lobby after cancelling")
	}
}

func TestCoordinatorExpiresIdleLobbies(t *testing.T) {
	c, reg := newTestCoordinator()
	host := NewChannelSession("host", 16)
	reg.Register(host)

	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	code := nextEvent(t, host).(LobbyCreatedEvent).Code

	lobby, ok := c.GetLobby(code)
	if !ok {
		t.Fatal("GetLobby() did not find the new lobby")
	}
	lobby.CreatedAt = time.Now().Add(-3 * time.Minute)

	c.expireIdleLobbies()
	if evt, ok := nextEvent(t, host).(LobbyErrorEvent); !ok || evt.Message != "Lobby expired" {
		t.Fatalf("event = %+v, expected lobby-expired error", evt)
	}
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() = %d, expected 0 after expiry", c.LobbyCount())
	}
}

func TestCoordinatorDisconnectInLobby(t *testing.T) {
	c, reg := newTestCoordinator()
	host := NewChannelSession("host", 16)
	reg.Register(host)

	c.createLobby(CreateLobbyMsg{SessionID: host.ID()})
	nextEvent(t, host)

	c.sessionGone(SessionDisconnectedMsg{SessionID: host.ID()})
	if c.LobbyCount() != 0 {
		t.Errorf("LobbyCount() = %d, expected 0 after host disconnect", c.LobbyCount())
	}
}

func TestGenerateJoinCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := generateJoinCode()
		if len(code) != joinCodeLength {
			t.Fatalf("generateJoinCode() = %q, expected %d characters", code, joinCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("generateJoinCode() = %q, character %q outside the code alphabet", code, r)
			}
		}
	}
}
