package netplay

import "github.com/liamharte04/EEECS-PingPong/internal/core"

// SessionEvent represents an event delivered to a presentation session.
type SessionEvent interface {
	isSessionEvent()
}

// LobbyCreatedEvent carries the join code for a freshly opened lobby.
type LobbyCreatedEvent struct {
	Code string
}

func (LobbyCreatedEvent) isSessionEvent() {}

// LobbyErrorEvent reports a failed lobby operation in displayable form.
type LobbyErrorEvent struct {
	Message string
}

func (LobbyErrorEvent) isSessionEvent() {}

// LobbyJoinedEvent tells both sides the lobby is full and which seat
// each of them got.
type LobbyJoinedEvent struct {
	Code       string
	Side       core.ParticipantID // which side this session plays
	OpponentID SessionID
}

func (LobbyJoinedEvent) isSessionEvent() {}

// LobbyPlayerLeftEvent is sent when a player leaves the lobby before
// the match starts.
type LobbyPlayerLeftEvent struct {
	Code string
}

func (LobbyPlayerLeftEvent) isSessionEvent() {}

// MatchStartedEvent announces that the lobby turned into a running
// match.
type MatchStartedEvent struct {
	MatchID MatchID
	Side    core.ParticipantID
	Code    string // keep code for display
}

func (MatchStartedEvent) isSessionEvent() {}

// MatchEndedEvent is sent when the match ends for good (a participant
// left; ordinary game overs rematch automatically and stay in-session).
type MatchEndedEvent struct {
	MatchID MatchID
	Reason  MatchEndReason
	Winner  core.ParticipantID // 0 if no winner
	Score1  int
	Score2  int
}

func (MatchEndedEvent) isSessionEvent() {}

// MatchEndReason classifies how a match came apart.
type MatchEndReason int

const (
	MatchEndReasonCompleted  MatchEndReason = iota // session closed normally
	MatchEndReasonDisconnect                       // opponent disconnected
	MatchEndReasonCancelled                        // match was cancelled
	MatchEndReasonHostLeft                         // host left the lobby
	MatchEndReasonJoinerLeft                       // joiner left the lobby
)

func (r MatchEndReason) String() string {
	switch r {
	case MatchEndReasonCompleted:
		return "Completed"
	case MatchEndReasonDisconnect:
		return "Connection lost"
	case MatchEndReasonCancelled:
		return "Cancelled"
	case MatchEndReasonHostLeft:
		return "Host left the match"
	case MatchEndReasonJoinerLeft:
		return "Opponent left the match"
	default:
		return "Unknown"
	}
}

// SnapshotEvent carries the per-tick court view to a session.
type SnapshotEvent struct {
	Tick     uint64
	Snapshot CourtSnapshot
}

func (SnapshotEvent) isSessionEvent() {}

// ContactEvent surfaces ball contacts for sound and visual feedback.
// Table, net, and wall touches are presentation-only; paddle touches
// additionally drive ownership transfer inside the core.
type ContactEvent struct {
	Surface     core.Surface
	Participant core.ParticipantID
	Pos         core.Vec3
}

func (ContactEvent) isSessionEvent() {}

// CoordinatorMessage represents a message from a session to the
// coordinator.
type CoordinatorMessage interface {
	isCoordinatorMsg()
}

// CreateLobbyMsg asks for a new lobby with the sender as host.
type CreateLobbyMsg struct {
	SessionID SessionID
}

func (CreateLobbyMsg) isCoordinatorMsg() {}

// JoinLobbyMsg redeems a join code for the second seat.
type JoinLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (JoinLobbyMsg) isCoordinatorMsg() {}

// CancelLobbyMsg withdraws a lobby the sender hosts.
type CancelLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (CancelLobbyMsg) isCoordinatorMsg() {}

// LeaveLobbyMsg gives up a lobby seat, either side.
type LeaveLobbyMsg struct {
	SessionID SessionID
	Code      string
}

func (LeaveLobbyMsg) isCoordinatorMsg() {}

// LeaveMatchMsg abandons a running match.
type LeaveMatchMsg struct {
	SessionID SessionID
	MatchID   MatchID
}

func (LeaveMatchMsg) isCoordinatorMsg() {}

// PlayerInputMsg routes player input to a hosted match.
type PlayerInputMsg struct {
	MatchID MatchID
	Player  core.ParticipantID
	Input   core.InputFrame
}

func (PlayerInputMsg) isCoordinatorMsg() {}

// SessionDisconnectedMsg reports that a session's connection is gone.
type SessionDisconnectedMsg struct {
	SessionID SessionID
}

func (SessionDisconnectedMsg) isCoordinatorMsg() {}
