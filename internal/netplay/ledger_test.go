package netplay

import (
	"errors"
	"testing"
	"time"
)

const (
	testCooldown   = 500 * time.Millisecond
	testAckTimeout = 350 * time.Millisecond
)

func newTestLedger() (*Ledger, time.Time) {
	l := NewLedger(testCooldown, testAckTimeout)
	l.BeginRally("ball-1", Participant1)
	return l, time.Unix(1000, 0)
}

func TestTransferLifecycle(t *testing.T) {
	l, now := newTestLedger()

	if l.Owner() != Participant1 {
		t.Fatalf("Owner() = %v, expected %v", l.Owner(), Participant1)
	}

	commit, err := l.RequestTransfer(Participant2, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}
	if commit.NewOwner != Participant2 || commit.PrevOwner != Participant1 {
		t.Errorf("commit owners = %v<-%v, expected %v<-%v",
			commit.NewOwner, commit.PrevOwner, Participant2, Participant1)
	}
	if commit.Seq != 1 {
		t.Errorf("commit.Seq = %d, expected 1", commit.Seq)
	}
	if commit.Revert {
		t.Error("forward commit should not be marked revert")
	}

	// Ownership applies immediately on the issuing side.
	if l.Owner() != Participant2 {
		t.Errorf("Owner() after request = %v, expected %v", l.Owner(), Participant2)
	}
	if !l.TransferPending() {
		t.Error("expected transfer to be pending before ack")
	}

	ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
	if _, rejected, err := l.ApplyAck(ack, now.Add(50*time.Millisecond)); err != nil || rejected {
		t.Fatalf("ApplyAck() = rejected=%v err=%v, expected settled", rejected, err)
	}
	if l.TransferPending() {
		t.Error("transfer still pending after positive ack")
	}
	if l.Owner() != Participant2 {
		t.Errorf("Owner() after ack = %v, expected %v", l.Owner(), Participant2)
	}
}

func TestTransferRejections(t *testing.T) {
	l, now := newTestLedger()

	if _, err := l.RequestTransfer(Participant1, now); !errors.Is(err, ErrTransferSelf) {
		t.Errorf("transfer to current owner: error = %v, expected %v", err, ErrTransferSelf)
	}

	commit, err := l.RequestTransfer(Participant2, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}
	if _, err := l.RequestTransfer(Participant1, now); !errors.Is(err, ErrTransferPending) {
		t.Errorf("transfer while pending: error = %v, expected %v", err, ErrTransferPending)
	}

	ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
	if _, _, err := l.ApplyAck(ack, now); err != nil {
		t.Fatalf("ApplyAck() error = %v", err)
	}

	// Settled, but the cooldown still holds.
	if _, err := l.RequestTransfer(Participant1, now.Add(100*time.Millisecond)); !errors.Is(err, ErrTransferCooldown) {
		t.Errorf("transfer inside cooldown: error = %v, expected %v", err, ErrTransferCooldown)
	}

	l.EndRally()
	if _, err := l.RequestTransfer(Participant2, now); !errors.Is(err, ErrNoBall) {
		t.Errorf("transfer with no ball: error = %v, expected %v", err, ErrNoBall)
	}
}

func TestCooldownBoundary(t *testing.T) {
	l, now := newTestLedger()

	commit, err := l.RequestTransfer(Participant2, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}
	ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
	if _, _, err := l.ApplyAck(ack, now); err != nil {
		t.Fatalf("ApplyAck() error = %v", err)
	}

	boundary := now.Add(testCooldown)
	if l.CooldownActive(boundary.Add(-time.Millisecond)) != true {
		t.Error("cooldown should be active just before expiry")
	}
	if l.CooldownActive(boundary) {
		t.Error("cooldown should be inactive exactly at expiry")
	}

	// A request exactly at the expiry instant is accepted.
	if _, err := l.RequestTransfer(Participant1, boundary); err != nil {
		t.Errorf("RequestTransfer at cooldown expiry: error = %v, expected nil", err)
	}
}

func TestAckTimeoutRevert(t *testing.T) {
	l, now := newTestLedger()

	commit, err := l.RequestTransfer(Participant2, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}

	if _, reverted := l.Tick(now.Add(testAckTimeout - time.Millisecond)); reverted {
		t.Fatal("reverted before the ack deadline")
	}

	revert, reverted := l.Tick(now.Add(testAckTimeout))
	if !reverted {
		t.Fatal("expected revert at the ack deadline")
	}
	if !revert.Revert {
		t.Error("revert commit not flagged")
	}
	if revert.Seq != commit.Seq+1 {
		t.Errorf("revert.Seq = %d, expected %d", revert.Seq, commit.Seq+1)
	}
	if revert.NewOwner != Participant1 {
		t.Errorf("revert.NewOwner = %v, expected %v", revert.NewOwner, Participant1)
	}
	if l.Owner() != Participant1 {
		t.Errorf("Owner() after revert = %v, expected %v", l.Owner(), Participant1)
	}
	if l.TransferPending() {
		t.Error("transfer still pending after revert")
	}

	// The failed handoff re-arms the cooldown so it is not retried
	// immediately.
	if !l.CooldownActive(now.Add(testAckTimeout)) {
		t.Error("cooldown not re-armed after revert")
	}

	// A late ack for the reverted transfer is stale.
	lateAck := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
	if _, _, err := l.ApplyAck(lateAck, now.Add(time.Second)); !errors.Is(err, ErrStaleMessage) {
		t.Errorf("late ack error = %v, expected %v", err, ErrStaleMessage)
	}
}

func TestAckRejectionRevertsImmediately(t *testing.T) {
	l, now := newTestLedger()

	commit, err := l.RequestTransfer(Participant2, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}

	ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: false, Reason: "unknown object"}
	revert, rejected, err := l.ApplyAck(ack, now.Add(20*time.Millisecond))
	if err != nil {
		t.Fatalf("ApplyAck() error = %v", err)
	}
	if !rejected {
		t.Fatal("expected rejection to produce a revert")
	}
	if !revert.Revert || revert.NewOwner != Participant1 {
		t.Errorf("revert = %+v, expected revert to %v", revert, Participant1)
	}
	if l.Owner() != Participant1 {
		t.Errorf("Owner() = %v, expected %v", l.Owner(), Participant1)
	}
}

func TestApplyCommitOrdering(t *testing.T) {
	l := NewLedger(testCooldown, testAckTimeout)
	l.BeginRally("ball-1", Participant1)
	now := time.Unix(1000, 0)

	first := TransferCommit{ObjectID: "ball-1", NewOwner: Participant2, PrevOwner: Participant1, Seq: 1}
	if err := l.ApplyCommit(first, now); err != nil {
		t.Fatalf("ApplyCommit(seq 1) error = %v", err)
	}
	if l.Owner() != Participant2 {
		t.Errorf("Owner() = %v, expected %v", l.Owner(), Participant2)
	}

	// The receiving side arms the same cooldown window.
	if !l.CooldownActive(now.Add(time.Millisecond)) {
		t.Error("cooldown not armed on the receiving side")
	}

	// Replayed and reordered commits are stale.
	if err := l.ApplyCommit(first, now); !errors.Is(err, ErrStaleMessage) {
		t.Errorf("replayed commit error = %v, expected %v", err, ErrStaleMessage)
	}
	older := TransferCommit{ObjectID: "ball-1", NewOwner: Participant1, PrevOwner: Participant2, Seq: 0}
	if err := l.ApplyCommit(older, now); !errors.Is(err, ErrStaleMessage) {
		t.Errorf("older commit error = %v, expected %v", err, ErrStaleMessage)
	}
	if l.Owner() != Participant2 {
		t.Errorf("stale commit changed owner to %v", l.Owner())
	}

	// Commits for a different ball never apply.
	wrong := TransferCommit{ObjectID: "ball-9", NewOwner: Participant1, Seq: 5}
	if err := l.ApplyCommit(wrong, now); !errors.Is(err, ErrWrongObject) {
		t.Errorf("wrong object commit error = %v, expected %v", err, ErrWrongObject)
	}
}

func TestRevertCommitAppliesWithoutAck(t *testing.T) {
	// Receiving side: a forward commit arrives, then the issuer times
	// out waiting for the ack and sends a revert. Both must apply in
	// order and the revert expects no acknowledgement to settle.
	l := NewLedger(testCooldown, testAckTimeout)
	l.BeginRally("ball-1", Participant1)
	now := time.Unix(1000, 0)

	forward := TransferCommit{ObjectID: "ball-1", NewOwner: Participant2, PrevOwner: Participant1, Seq: 1}
	if err := l.ApplyCommit(forward, now); err != nil {
		t.Fatalf("ApplyCommit(forward) error = %v", err)
	}

	revert := TransferCommit{ObjectID: "ball-1", NewOwner: Participant1, PrevOwner: Participant2, Seq: 2, Revert: true}
	if err := l.ApplyCommit(revert, now.Add(testAckTimeout)); err != nil {
		t.Fatalf("ApplyCommit(revert) error = %v", err)
	}
	if l.Owner() != Participant1 {
		t.Errorf("Owner() after revert = %v, expected %v", l.Owner(), Participant1)
	}
	if l.TransferPending() {
		t.Error("revert must not leave a pending transfer")
	}
}

func TestHandoffRoundTrips(t *testing.T) {
	// Two ledgers exchanging commits and acks stay in agreement about
	// the single owner through repeated handoffs.
	l1 := NewLedger(testCooldown, testAckTimeout)
	l2 := NewLedger(testCooldown, testAckTimeout)
	l1.BeginRally("ball-1", Participant1)
	l2.BeginRally("ball-1", Participant1)
	now := time.Unix(1000, 0)

	from, to := l1, l2
	owner := Participant2
	for i := 0; i < 6; i++ {
		commit, err := from.RequestTransfer(owner, now)
		if err != nil {
			t.Fatalf("round %d: RequestTransfer() error = %v", i, err)
		}
		if err := to.ApplyCommit(commit, now); err != nil {
			t.Fatalf("round %d: ApplyCommit() error = %v", i, err)
		}
		ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
		if _, _, err := from.ApplyAck(ack, now); err != nil {
			t.Fatalf("round %d: ApplyAck() error = %v", i, err)
		}

		if l1.Owner() != l2.Owner() {
			t.Fatalf("round %d: owners diverged: %v vs %v", i, l1.Owner(), l2.Owner())
		}
		if l1.Owner() != owner {
			t.Fatalf("round %d: owner = %v, expected %v", i, l1.Owner(), owner)
		}

		from, to = to, from
		owner = owner.Other()
		now = now.Add(testCooldown)
	}
}

func TestBeginRallyResetsState(t *testing.T) {
	l, now := newTestLedger()

	if _, err := l.RequestTransfer(Participant2, now); err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}

	l.BeginRally("ball-2", Participant2)
	if l.Owner() != Participant2 {
		t.Errorf("Owner() = %v, expected %v", l.Owner(), Participant2)
	}
	if l.TransferPending() {
		t.Error("pending transfer survived BeginRally")
	}
	if l.CooldownActive(now) {
		t.Error("cooldown survived BeginRally")
	}
	if l.ObjectID() != "ball-2" {
		t.Errorf("ObjectID() = %q, expected %q", l.ObjectID(), "ball-2")
	}

	// Sequence numbering restarts with the new ball.
	commit, err := l.RequestTransfer(Participant1, now)
	if err != nil {
		t.Fatalf("RequestTransfer() error = %v", err)
	}
	if commit.Seq != 1 {
		t.Errorf("commit.Seq = %d, expected 1", commit.Seq)
	}
}

func TestClearCooldown(t *testing.T) {
	l, now := newTestLedger()

	commit, _ := l.RequestTransfer(Participant2, now)
	ack := TransferAck{ObjectID: "ball-1", Seq: commit.Seq, OK: true}
	if _, _, err := l.ApplyAck(ack, now); err != nil {
		t.Fatalf("ApplyAck() error = %v", err)
	}
	if !l.CooldownActive(now.Add(time.Millisecond)) {
		t.Fatal("expected active cooldown")
	}

	l.ClearCooldown()
	if l.CooldownActive(now.Add(time.Millisecond)) {
		t.Error("cooldown still active after ClearCooldown")
	}
}
