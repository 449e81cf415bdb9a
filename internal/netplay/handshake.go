package netplay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
)

// HandshakeSeqOffset is the envelope sequence each side has consumed
// once the handshake is done: the joiner has sent one Hello, the host
// one Welcome. Pass it as PeerOptions.WireSeqOffset on both sides.
const HandshakeSeqOffset = 1

// HostHandshake answers the joiner's Hello with the session
// parameters. The host is always participant 1; the joiner is assigned
// participant 2. Returns the joiner's display name.
func HostHandshake(ctx context.Context, t Transport, matchID MatchID, cfg config.Config) (string, error) {
	msg, err := waitHandshakeMessage(ctx, t)
	if err != nil {
		return "", fmt.Errorf("failed to receive hello: %w", err)
	}
	if msg.Type != MsgHello || msg.Hello == nil {
		return "", fmt.Errorf("expected hello, got %q", msg.Type)
	}
	if msg.Hello.Protocol != ProtocolVersion {
		bye := Bye{Reason: "protocol mismatch"}
		_ = t.Send(Message{Type: MsgBye, From: Participant1, Seq: 1, T: time.Now().UnixMilli(), Bye: &bye})
		return "", fmt.Errorf("protocol mismatch: ours %d, theirs %d", ProtocolVersion, msg.Hello.Protocol)
	}

	welcome := Welcome{
		Protocol:     ProtocolVersion,
		Assigned:     Participant2,
		MatchID:      string(matchID),
		WinThreshold: cfg.Match.WinThreshold,
		TickRate:     cfg.Net.TickRate,
	}
	err = t.Send(Message{
		Type:    MsgWelcome,
		From:    Participant1,
		Seq:     1,
		T:       time.Now().UnixMilli(),
		Welcome: &welcome,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send welcome: %w", err)
	}
	return msg.Hello.Name, nil
}

// JoinHandshake introduces this peer to the host and waits for the
// Welcome carrying its participant assignment and the host's rules.
// The caller must adopt the returned rules before building its peer so
// both sides simulate under identical settings.
func JoinHandshake(ctx context.Context, t Transport, name string) (Welcome, error) {
	hello := Hello{Protocol: ProtocolVersion, Name: name}
	err := t.Send(Message{
		Type:  MsgHello,
		Seq:   1,
		T:     time.Now().UnixMilli(),
		Hello: &hello,
	})
	if err != nil {
		return Welcome{}, fmt.Errorf("failed to send hello: %w", err)
	}

	for {
		msg, err := waitHandshakeMessage(ctx, t)
		if err != nil {
			return Welcome{}, fmt.Errorf("failed to receive welcome: %w", err)
		}
		switch msg.Type {
		case MsgWelcome:
			if msg.Welcome == nil || msg.Welcome.Protocol != ProtocolVersion {
				return Welcome{}, errors.New("host answered with incompatible protocol")
			}
			return *msg.Welcome, nil
		case MsgBye:
			return Welcome{}, fmt.Errorf("host refused: %s", byeReason(msg.Bye))
		default:
			// Ignore anything else; the host has not spoken yet.
		}
	}
}

func waitHandshakeMessage(ctx context.Context, t Transport) (Message, error) {
	select {
	case msg, ok := <-t.Inbox():
		if !ok {
			return Message{}, errors.New("link closed")
		}
		return msg, nil
	case <-t.Done():
		return Message{}, errors.New("link closed")
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
