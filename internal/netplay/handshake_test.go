package netplay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
)

func TestHandshakeExchangesRules(t *testing.T) {
	hostT, joinT := newPipePair()
	cfg := config.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type hostResult struct {
		name string
		err  error
	}
	hostDone := make(chan hostResult, 1)
	go func() {
		name, err := HostHandshake(ctx, hostT, "match-42", cfg)
		hostDone <- hostResult{name, err}
	}()

	welcome, err := JoinHandshake(ctx, joinT, "challenger")
	if err != nil {
		t.Fatalf("JoinHandshake() error = %v", err)
	}
	if welcome.Assigned != Participant2 {
		t.Errorf("Assigned = %v, expected %v", welcome.Assigned, Participant2)
	}
	if welcome.MatchID != "match-42" {
		t.Errorf("MatchID = %q, expected %q", welcome.MatchID, "match-42")
	}
	if welcome.WinThreshold != cfg.Match.WinThreshold {
		t.Errorf("WinThreshold = %d, expected %d", welcome.WinThreshold, cfg.Match.WinThreshold)
	}
	if welcome.TickRate != cfg.Net.TickRate {
		t.Errorf("TickRate = %d, expected %d", welcome.TickRate, cfg.Net.TickRate)
	}

	res := <-hostDone
	if res.err != nil {
		t.Fatalf("HostHandshake() error = %v", res.err)
	}
	if res.name != "challenger" {
		t.Errorf("joiner name = %q, expected %q", res.name, "challenger")
	}
}

func TestHandshakeProtocolMismatch(t *testing.T) {
	hostT, joinT := newPipePair()
	cfg := config.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hostErr := make(chan error, 1)
	go func() {
		_, err := HostHandshake(ctx, hostT, "match-42", cfg)
		hostErr <- err
	}()

	hello := Hello{Protocol: ProtocolVersion + 1, Name: "future"}
	if err := joinT.Send(Message{Type: MsgHello, Seq: 1, Hello: &hello}); err != nil {
		t.Fatalf("Send(hello) error = %v", err)
	}

	err := <-hostErr
	if err == nil || !strings.Contains(err.Error(), "protocol mismatch") {
		t.Fatalf("HostHandshake() error = %v, expected protocol mismatch", err)
	}

	// The joiner is told why before the host hangs up.
	select {
	case msg := <-joinT.Inbox():
		if msg.Type != MsgBye {
			t.Errorf("joiner received %q, expected %q", msg.Type, MsgBye)
		}
	case <-time.After(time.Second):
		t.Error("joiner never received the refusal")
	}
}

func TestJoinHandshakeRefused(t *testing.T) {
	hostT, joinT := newPipePair()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		// Swallow the hello, then refuse.
		<-hostT.Inbox()
		bye := Bye{Reason: "room closed"}
		_ = hostT.Send(Message{Type: MsgBye, From: Participant1, Seq: 1, Bye: &bye})
	}()

	_, err := JoinHandshake(ctx, joinT, "challenger")
	if err == nil || !strings.Contains(err.Error(), "room closed") {
		t.Fatalf("JoinHandshake() error = %v, expected the refusal reason", err)
	}
}

func TestJoinHandshakeIgnoresStrayTraffic(t *testing.T) {
	hostT, joinT := newPipePair()
	cfg := config.Default()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		<-hostT.Inbox()
		// A stale paddle sample precedes the welcome; the joiner must
		// skip it rather than fail.
		pose := PaddleSample{}
		_ = hostT.Send(Message{Type: MsgPaddle, From: Participant1, Seq: 1, Paddle: &pose})
		welcome := Welcome{Protocol: ProtocolVersion, Assigned: Participant2, MatchID: "m", WinThreshold: cfg.Match.WinThreshold, TickRate: cfg.Net.TickRate}
		_ = hostT.Send(Message{Type: MsgWelcome, From: Participant1, Seq: 2, Welcome: &welcome})
	}()

	welcome, err := JoinHandshake(ctx, joinT, "challenger")
	if err != nil {
		t.Fatalf("JoinHandshake() error = %v", err)
	}
	if welcome.Assigned != Participant2 {
		t.Errorf("Assigned = %v, expected %v", welcome.Assigned, Participant2)
	}
}

func TestHandshakeCancelled(t *testing.T) {
	hostT, _ := newPipePair()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := HostHandshake(ctx, hostT, "match-42", config.Default())
	if err == nil {
		t.Fatal("HostHandshake() succeeded with a cancelled context")
	}
}
