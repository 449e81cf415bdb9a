package netplay

import (
	"fmt"
	"math"

	"github.com/liamharte04/EEECS-PingPong/internal/core"
)

// ProtocolVersion guards against mismatched builds talking past each
// other during the handshake.
const ProtocolVersion = 1

// MsgType discriminates wire messages. String values keep captures
// readable.
type MsgType string

const (
	MsgHello    MsgType = "hello"
	MsgWelcome  MsgType = "welcome"
	MsgPaddle   MsgType = "paddle"
	MsgBall     MsgType = "ball"
	MsgTransfer MsgType = "transfer"
	MsgAck      MsgType = "ack"
	MsgServe    MsgType = "serve"
	MsgRallyEnd MsgType = "rally_end"
	MsgMatch    MsgType = "match"
	MsgBye      MsgType = "bye"
)

// Message is the wire envelope. Exactly one payload pointer is set,
// matching Type. Seq is a per-sender monotonic counter used to discard
// reordered stragglers; T is the sender's clock in unix milliseconds.
type Message struct {
	Type MsgType            `json:"type"`
	From core.ParticipantID `json:"from"`
	Seq  uint64             `json:"seq"`
	T    int64              `json:"t"`

	Hello    *Hello          `json:"hello,omitempty"`
	Welcome  *Welcome        `json:"welcome,omitempty"`
	Paddle   *PaddleSample   `json:"paddle,omitempty"`
	Ball     *BallSample     `json:"ball,omitempty"`
	Transfer *TransferCommit `json:"transfer,omitempty"`
	Ack      *TransferAck    `json:"ack,omitempty"`
	RallyEnd *RallyEnd       `json:"rally_end,omitempty"`
	Match    *MatchState     `json:"match,omitempty"`
	Bye      *Bye            `json:"bye,omitempty"`
}

// Hello opens the handshake from the joining participant.
type Hello struct {
	Protocol int    `json:"protocol"`
	Name     string `json:"name,omitempty"`
}

// Welcome completes the handshake. The host assigns the joiner its
// participant number and dictates the session rules so both peers agree.
type Welcome struct {
	Protocol     int                `json:"protocol"`
	Assigned     core.ParticipantID `json:"assigned"`
	MatchID      string             `json:"match_id"`
	WinThreshold int                `json:"win_threshold"`
	TickRate     int                `json:"tick_rate"`
}

// PaddleSample replicates one participant's manipulator pose.
type PaddleSample struct {
	Pose core.Pose `json:"pose"`
}

// Validate rejects non-finite poses before they reach the simulation.
func (s PaddleSample) Validate() error {
	if !s.Pose.IsFinite() {
		return fmt.Errorf("paddle pose: %w", ErrMalformedSample)
	}
	return nil
}

// BallSample is the owner's published ball state. Seq orders samples
// within one ownership span; T is the origin timestamp used for lag
// compensation.
type BallSample struct {
	ObjectID string    `json:"object_id"`
	Pos      core.Vec3 `json:"pos"`
	Vel      core.Vec3 `json:"vel"`
	Seq      uint64    `json:"seq"`
	T        int64     `json:"t"`
}

// Validate rejects samples that could poison the predicted state:
// non-finite values or positions far outside any plausible court.
func (s BallSample) Validate() error {
	if !s.Pos.IsFinite() || !s.Vel.IsFinite() {
		return fmt.Errorf("ball sample: %w", ErrMalformedSample)
	}
	if math.Abs(s.Pos.X) > 1e3 || math.Abs(s.Pos.Y) > 1e3 || math.Abs(s.Pos.Z) > 1e3 {
		return fmt.Errorf("ball sample out of range: %w", ErrMalformedSample)
	}
	return nil
}

// TransferCommit moves ball ownership. It is issued by the current
// owner (push, not pull) and sequenced in the owner's send order; Seq
// must be strictly newer than the last applied commit for the object.
// Revert commits return ownership after a failed handoff and expect no
// acknowledgement.
type TransferCommit struct {
	ObjectID  string             `json:"object_id"`
	NewOwner  core.ParticipantID `json:"new_owner"`
	PrevOwner core.ParticipantID `json:"prev_owner"`
	Seq       uint64             `json:"seq"`
	T         int64              `json:"t"`
	Revert    bool               `json:"revert,omitempty"`
}

// TransferAck settles a pending commit. OK false makes the issuer
// revert immediately instead of waiting out the timeout.
type TransferAck struct {
	ObjectID string `json:"object_id"`
	Seq      uint64 `json:"seq"`
	OK       bool   `json:"ok"`
	Reason   string `json:"reason,omitempty"`
}

// RallyEnd reports an owner-detected boundary exit to the session
// authority, which resolves the scoring decision.
type RallyEnd struct {
	ObjectID string    `json:"object_id"`
	Exit     core.Vec3 `json:"exit"`
}

// Bye announces an orderly departure.
type Bye struct {
	Reason string `json:"reason,omitempty"`
}

// Transport is the reliable, ordered, per-sender-FIFO link to the one
// remote participant. With two participants, unicast and broadcast are
// the same operation. Implementations live in internal/transport; the
// interface is defined here, where it is consumed.
type Transport interface {
	// Send queues a message for the remote peer. It must not block the
	// simulation goroutine.
	Send(msg Message) error

	// Inbox delivers remote messages in the sender's send order.
	Inbox() <-chan Message

	// Done closes when the link is lost or closed.
	Done() <-chan struct{}

	// Close tears the link down.
	Close() error
}
