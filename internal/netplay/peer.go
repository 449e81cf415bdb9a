package netplay

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/core"
	"github.com/liamharte04/EEECS-PingPong/internal/sim"
)

// CourtFromConfig builds court geometry from configuration.
func CourtFromConfig(c config.CourtConfig) core.Court {
	return core.NewCourt(c.HalfLength, c.HalfWidth, c.TableHeight, c.NetHeight, c.BoundsMargin, c.KillPlaneY)
}

// PeerOptions configures a Peer.
type PeerOptions struct {
	Self    ParticipantID
	MatchID MatchID
	Config  config.Config

	// Transport is the link to the one remote participant.
	Transport Transport

	// Session receives per-tick snapshots and feedback events for the
	// local presentation layer. Optional.
	Session SessionHandle

	// Logger defaults to a silent logger.
	Logger *log.Logger

	// Seed makes serve randomization reproducible. Zero picks a
	// time-based seed.
	Seed int64

	// WireSeqOffset seeds the envelope sequence counters when messages
	// were already exchanged on this link, such as the handshake.
	WireSeqOffset uint64
}

// Peer runs one participant's side of the session: it simulates the
// ball while owning it, replicates it while not, streams the local
// paddle, and, on participant 1, runs the authoritative match machine.
// Everything is driven from a single goroutine; external callers talk
// to it through SendInput, Stop, and the transport.
type Peer struct {
	self    ParticipantID
	matchID MatchID
	cfg     config.Config
	logger  *log.Logger

	transport Transport
	session   SessionHandle

	world    *sim.World
	ledger   *Ledger
	rep      *BallReplicator
	detector *RallyDetector

	// Exactly one of machine and replica is set: machine on the
	// session authority, replica everywhere else.
	machine *MatchMachine
	replica *ScoreReplicator

	inputMu   sync.Mutex
	lastInput core.InputFrame
	inputChan chan core.InputFrame

	sendSeq uint64
	recvSeq uint64

	tick     uint64
	tickRate int

	done           chan struct{}
	doneOnce       sync.Once
	disconnectChan chan struct{}
}

// NewPeer creates a peer for one participant. Participant 1 becomes
// the session authority and runs the match machine; participant 2
// follows replicated state.
func NewPeer(opts PeerOptions) *Peer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tickRate := opts.Config.Net.TickRate
	if tickRate <= 0 {
		tickRate = 30
	}

	court := CourtFromConfig(opts.Config.Court)
	net := opts.Config.Net

	p := &Peer{
		self:      opts.Self,
		matchID:   opts.MatchID,
		cfg:       opts.Config,
		logger:    logger,
		transport: opts.Transport,
		session:   opts.Session,
		world:     sim.NewWorld(court, opts.Config.Physics, opts.Config.Paddle, seed),
		ledger: NewLedger(
			time.Duration(net.CooldownMs)*time.Millisecond,
			time.Duration(net.AckTimeoutMs)*time.Millisecond,
		),
		rep: NewBallReplicator(ReplicatorConfig{
			PublishEvery:  net.PublishEvery,
			SmoothingRate: net.SmoothingRate,
			SnapDistance:  net.SnapDistance,
			DelayClamp:    time.Duration(net.DelayClampMs) * time.Millisecond,
		}),
		detector:       NewRallyDetector(court),
		lastInput:      core.NewInputFrame(),
		inputChan:      make(chan core.InputFrame, 64),
		sendSeq:        opts.WireSeqOffset,
		recvSeq:        opts.WireSeqOffset,
		tickRate:       tickRate,
		done:           make(chan struct{}),
		disconnectChan: make(chan struct{}, 1),
	}

	if opts.Self == Participant1 {
		p.machine = NewMatchMachine(opts.Config.Match, court)
	} else {
		p.replica = NewScoreReplicator()
	}
	return p
}

// Self returns this peer's participant number.
func (p *Peer) Self() ParticipantID {
	return p.self
}

// MatchID returns the match identifier.
func (p *Peer) MatchID() MatchID {
	return p.matchID
}

// SendInput queues an input frame from the local player.
// Non-blocking; a full queue drops the frame.
func (p *Peer) SendInput(input core.InputFrame) {
	select {
	case p.inputChan <- input:
	default:
	}
}

// Stop ends the peer loop. Safe to call multiple times.
func (p *Peer) Stop() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

// Done returns a channel that closes when the peer loop has been told
// to stop.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// Run drives the peer at the configured tick rate until the link is
// lost or Stop is called. The callback receives the result when the
// session ends because the remote participant is gone; a local Stop
// returns without it.
func (p *Peer) Run(onComplete func(MatchResult)) {
	defer p.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(p.tickRate))
	defer ticker.Stop()

	go p.monitorTransport()
	p.start(time.Now())

	for {
		select {
		case <-ticker.C:
			p.runTick(time.Now())

		case <-p.disconnectChan:
			result := p.handlePeerLost(time.Now())
			if onComplete != nil {
				onComplete(result)
			}
			return

		case <-p.done:
			p.send(Message{Type: MsgBye, Bye: &Bye{Reason: "left"}}, time.Now())
			return
		}
	}
}

// start announces presence once both participants are on the link.
// The authority seeds the replicas with its initial state first so
// revision numbering is aligned before the first real transition.
func (p *Peer) start(now time.Time) {
	if p.machine == nil {
		return
	}
	p.sendState(p.machine.State(), now)
	p.applyEffects(p.machine.SetPresent(Participant1, true, now), now)
	p.applyEffects(p.machine.SetPresent(Participant2, true, now), now)
}

func (p *Peer) monitorTransport() {
	select {
	case <-p.transport.Done():
		p.signalPeerLost()
	case <-p.done:
	}
}

func (p *Peer) signalPeerLost() {
	select {
	case p.disconnectChan <- struct{}{}:
	default:
	}
}

// runTick advances one fixed simulation step. Split out from Run so
// tests can drive it with a synthetic clock.
func (p *Peer) runTick(now time.Time) {
	dt := 1.0 / float64(p.tickRate)

	p.drainInbox(now)
	input := p.consumeInput()

	p.world.MovePaddle(p.self, input, dt)
	sample := PaddleSample{Pose: p.world.Paddle(p.self).Pose}
	p.send(Message{Type: MsgPaddle, Paddle: &sample}, now)

	if input.Has(core.ActionServe) {
		p.tryServe(now)
	}

	p.stepBall(dt, now)

	if revert, ok := p.ledger.Tick(now); ok {
		p.logger.Warn("ball handoff unacknowledged, reverting", "seq", revert.Seq)
		p.send(Message{Type: MsgTransfer, Transfer: &revert}, now)
		if revert.NewOwner == p.self {
			p.rep.BecomeOwner(p.world)
		}
	}

	if p.machine != nil {
		p.applyEffects(p.machine.Tick(now), now)
		if p.machine.Phase() == PhaseRallying {
			if pos, ok := p.ballViewPos(); ok && p.detector.ScoreZoneHit(pos) {
				p.applyEffects(p.machine.RallyEnded(pos, now), now)
			}
		}
	}

	p.tick++
	p.notify(SnapshotEvent{Tick: p.tick, Snapshot: p.snapshot()})
}

// drainInbox processes every message the transport has buffered.
func (p *Peer) drainInbox(now time.Time) {
	for {
		select {
		case msg, ok := <-p.transport.Inbox():
			if !ok {
				return
			}
			p.handleMessage(msg, now)
		default:
			return
		}
	}
}

// consumeInput merges queued input frames into the per-tick frame,
// returns it, and clears it for the next tick.
func (p *Peer) consumeInput() core.InputFrame {
	p.inputMu.Lock()
	defer p.inputMu.Unlock()

	for {
		select {
		case in := <-p.inputChan:
			p.lastInput.Merge(in)
		default:
			consumed := p.lastInput.Clone()
			p.lastInput.Clear()
			return consumed
		}
	}
}

// tryServe applies the serve if this peer is the designated server in
// the Serving phase. The impulse lands locally first so the serve
// feels instant; the authority hears about it on the same tick's send.
func (p *Peer) tryServe(now time.Time) {
	st := p.stateView()
	if st.Phase != PhaseServing || st.Server != p.self {
		return
	}
	if !p.world.Serve(p.self) {
		return
	}
	p.logger.Debug("serve", "by", p.self)
	if p.machine != nil {
		p.applyEffects(p.machine.ServeTriggered(p.self, now), now)
	} else {
		p.send(Message{Type: MsgServe}, now)
	}
}

// stepBall advances the ball: full simulation while owning it, target
// extrapolation and smoothing while not.
func (p *Peer) stepBall(dt float64, now time.Time) {
	if !p.rep.Owned() {
		p.rep.StepRemote(dt)
		return
	}
	if !p.world.HasBall() || p.rep.Exited() {
		return
	}

	contacts := p.world.StepOwned(dt)
	evt := p.detector.Analyze(p.world, contacts)
	for _, c := range contacts {
		p.notify(ContactEvent{Surface: c.Surface, Participant: c.Participant, Pos: c.Pos})
	}

	if evt.Hit && evt.Hitter != p.self {
		p.initiateHandoff(evt.Hitter, now)
	}
	if evt.Exited {
		p.rep.MarkExited(evt.Exit)
		p.reportRallyEnd(evt.Exit, now)
		return
	}

	if p.rep.Owned() {
		if b, ok := p.world.BallState(); ok {
			if s, publish := p.rep.Publish(b, now); publish {
				p.send(Message{Type: MsgBall, Ball: &s}, now)
			}
		}
	}
}

// initiateHandoff pushes ownership to the participant whose paddle the
// ball just struck. A rejection from the ledger, usually the cooldown,
// keeps this peer simulating.
func (p *Peer) initiateHandoff(to ParticipantID, now time.Time) {
	commit, err := p.ledger.RequestTransfer(to, now)
	if err != nil {
		p.logger.Debug("ball handoff suppressed", "to", to, "err", err)
		return
	}
	p.rep.BecomeRemote(p.world)
	p.send(Message{Type: MsgTransfer, Transfer: &commit}, now)
	p.logger.Debug("ball handoff", "to", to, "seq", commit.Seq)
}

// reportRallyEnd routes an out-of-bounds exit to the authority. This
// is the backup path; the authority's own score zone check usually
// fires first.
func (p *Peer) reportRallyEnd(exit core.Vec3, now time.Time) {
	if p.machine != nil {
		p.applyEffects(p.machine.RallyEnded(exit, now), now)
		return
	}
	re := RallyEnd{ObjectID: p.rep.ObjectID(), Exit: exit}
	p.send(Message{Type: MsgRallyEnd, RallyEnd: &re}, now)
}

// handleMessage dispatches one remote message. Envelope sequence
// numbers are per-sender monotonic; anything at or below the last
// accepted one is a duplicate or a straggler and is dropped silently.
func (p *Peer) handleMessage(msg Message, now time.Time) {
	if msg.Seq <= p.recvSeq {
		return
	}
	p.recvSeq = msg.Seq

	switch msg.Type {
	case MsgPaddle:
		if msg.Paddle == nil {
			return
		}
		if err := msg.Paddle.Validate(); err != nil {
			p.logger.Warn("dropped paddle sample", "err", err)
			return
		}
		if msg.From.Valid() && msg.From != p.self {
			p.world.SetPaddlePose(msg.From, msg.Paddle.Pose)
		}

	case MsgBall:
		if msg.Ball == nil {
			return
		}
		if err := p.rep.ApplySample(*msg.Ball, now); err != nil {
			// Stale and wrong-object samples are routine around
			// handoffs and rally teardown.
			if errors.Is(err, ErrMalformedSample) {
				p.logger.Warn("dropped ball sample", "err", err)
			}
		}

	case MsgTransfer:
		if msg.Transfer != nil {
			p.handleTransfer(*msg.Transfer, now)
		}

	case MsgAck:
		if msg.Ack != nil {
			p.handleAck(*msg.Ack, now)
		}

	case MsgServe:
		if p.machine != nil {
			p.applyEffects(p.machine.ServeTriggered(msg.From, now), now)
		}

	case MsgRallyEnd:
		p.handleRallyEnd(msg, now)

	case MsgMatch:
		if p.replica == nil || msg.Match == nil {
			return
		}
		prev := p.replica.State()
		if err := p.replica.Apply(*msg.Match); err != nil {
			return
		}
		p.applyStateDiff(prev, p.replica.State())

	case MsgBye:
		p.logger.Info("remote participant left", "reason", byeReason(msg.Bye))
		p.signalPeerLost()
	}
}

func byeReason(b *Bye) string {
	if b == nil {
		return ""
	}
	return b.Reason
}

// handleTransfer applies an ownership commit from the remote side and
// acknowledges forward commits addressed to this peer.
func (p *Peer) handleTransfer(c TransferCommit, now time.Time) {
	err := p.ledger.ApplyCommit(c, now)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleMessage):
		return
	default:
		if !c.Revert {
			ack := TransferAck{ObjectID: c.ObjectID, Seq: c.Seq, OK: false, Reason: err.Error()}
			p.send(Message{Type: MsgAck, Ack: &ack}, now)
		}
		return
	}

	if c.NewOwner == p.self {
		p.rep.BecomeOwner(p.world)
		if !c.Revert {
			// A forward commit means this side's paddle hit the ball,
			// so it must be heading for the opponent.
			p.detector.steerAway(p.world, p.self)
			ack := TransferAck{ObjectID: c.ObjectID, Seq: c.Seq, OK: true}
			p.send(Message{Type: MsgAck, Ack: &ack}, now)
		}
		p.logger.Debug("ball received", "seq", c.Seq, "revert", c.Revert)
	} else {
		p.rep.BecomeRemote(p.world)
	}
}

// handleAck settles a pending handoff. A rejection reverts ownership
// back to this peer immediately.
func (p *Peer) handleAck(a TransferAck, now time.Time) {
	revert, rejected, err := p.ledger.ApplyAck(a, now)
	if err != nil {
		return
	}
	if !rejected {
		return
	}
	p.logger.Warn("ball handoff rejected", "seq", a.Seq, "reason", a.Reason)
	p.send(Message{Type: MsgTransfer, Transfer: &revert}, now)
	if revert.NewOwner == p.self {
		p.rep.BecomeOwner(p.world)
	}
}

// handleRallyEnd feeds an owner-reported exit into the machine. Only
// the authority resolves rallies, and only for the ball it knows
// about; reports for finished rallies are stragglers.
func (p *Peer) handleRallyEnd(msg Message, now time.Time) {
	if p.machine == nil || msg.RallyEnd == nil {
		return
	}
	re := *msg.RallyEnd
	if !re.Exit.IsFinite() {
		p.logger.Warn("dropped rally end report", "err", ErrMalformedSample)
		return
	}
	if re.ObjectID != p.machine.State().BallObjectID {
		return
	}
	p.applyEffects(p.machine.RallyEnded(re.Exit, now), now)
}

// applyEffects executes machine side effects on the authority.
func (p *Peer) applyEffects(effects []MachineEffect, now time.Time) {
	for _, e := range effects {
		switch e := e.(type) {
		case EffectBroadcast:
			p.sendState(e.State, now)
		case EffectSpawnBall:
			p.beginRally(e.ObjectID, e.Server)
		case EffectDestroyBall:
			p.endRally()
		case EffectClearCooldowns:
			p.ledger.ClearCooldown()
		}
	}
}

// applyStateDiff reacts to a replicated state change on a
// non-authority peer. Replicas never apply deltas; they compare the
// old and new records and mirror the authority's side effects.
func (p *Peer) applyStateDiff(prev, cur MatchState) {
	if cur.BallObjectID != prev.BallObjectID {
		if prev.BallObjectID != "" {
			p.endRally()
		}
		if cur.BallObjectID != "" {
			p.beginRally(cur.BallObjectID, cur.Server)
		}
	}
	if cur.Phase == PhaseWaiting && prev.Phase != PhaseWaiting {
		p.ledger.ClearCooldown()
	}
	if who, ok := ScoreChanged(prev, cur); ok {
		p.logger.Info("point", "to", who, "score", cur.ScoreLine())
	}
}

// beginRally wires a fresh ball into the world, ledger, and
// replicator. The serving side spawns the frozen ball locally and owns
// it; the other side tracks it remotely from the agreed spawn point.
func (p *Peer) beginRally(objectID string, server ParticipantID) {
	p.ledger.BeginRally(objectID, server)
	p.detector.Reset()
	spawn := p.world.Court().ServeSpawn(server)
	if server == p.self {
		p.world.SpawnBall(server)
		p.rep.BeginRally(objectID, true, spawn)
	} else {
		p.world.DestroyBall()
		p.rep.BeginRally(objectID, false, spawn)
	}
}

// endRally removes the ball everywhere.
func (p *Peer) endRally() {
	p.world.DestroyBall()
	p.rep.EndRally()
	p.ledger.EndRally()
}

// handlePeerLost tears the session down after losing the remote side.
// The authority interrupts its machine; a replica forces its local
// copy back to Waiting since no further broadcasts are coming.
func (p *Peer) handlePeerLost(now time.Time) MatchResult {
	p.logger.Info("peer link lost", "match", p.matchID)

	var st MatchState
	if p.machine != nil {
		p.applyEffects(p.machine.SetPresent(p.self.Other(), false, now), now)
		st = p.machine.State()
	} else {
		p.endRally()
		p.ledger.ClearCooldown()
		st = p.replica.State()
		st.Phase = PhaseWaiting
		st.Countdown = 0
		st.BallObjectID = ""
		st.Status = "Waiting for opponent"
		p.replica.Force(st)
		st = p.replica.State()
	}

	p.notify(SnapshotEvent{Tick: p.tick, Snapshot: p.snapshot()})
	return MatchResult{
		MatchID: p.matchID,
		Reason:  MatchEndReasonDisconnect,
		Winner:  st.Winner,
		Score1:  st.Score1,
		Score2:  st.Score2,
		Ticks:   p.tick,
	}
}

// stateView returns the match state as this peer knows it.
func (p *Peer) stateView() MatchState {
	if p.machine != nil {
		return p.machine.State()
	}
	return p.replica.State()
}

// ballViewPos returns the ball position this peer would act on: the
// simulated position while owning, the smoothed prediction otherwise.
func (p *Peer) ballViewPos() (core.Vec3, bool) {
	if p.rep.Owned() {
		if b, ok := p.world.BallState(); ok {
			return b.Pos, true
		}
		return core.Vec3{}, false
	}
	if p.rep.ObjectID() == "" {
		return core.Vec3{}, false
	}
	return p.rep.View().Pos, true
}

// snapshot builds the presentation view for this tick.
func (p *Peer) snapshot() CourtSnapshot {
	st := p.stateView()
	snap := CourtSnapshot{
		Self:    p.self,
		Owner:   p.ledger.Owner(),
		State:   st,
		Paddle1: p.world.Paddle(Participant1).Pose,
		Paddle2: p.world.Paddle(Participant2).Pose,
	}
	if p.rep.Owned() {
		if b, ok := p.world.BallState(); ok {
			snap.Ball = BallView{Pos: b.Pos, Vel: b.Vel, Frozen: b.Kinematic, Visible: !p.rep.Exited()}
		}
	} else if p.rep.ObjectID() != "" {
		v := p.rep.View()
		snap.Ball = BallView{Pos: v.Pos, Vel: v.Vel, Frozen: st.Phase == PhaseServing, Visible: true}
	}
	return snap
}

// sendState replicates the full match record.
func (p *Peer) sendState(st MatchState, now time.Time) {
	cp := st
	p.send(Message{Type: MsgMatch, Match: &cp}, now)
}

// send stamps the envelope and queues it on the transport. Send
// failures are expected while the link is dying; the transport monitor
// handles the teardown.
func (p *Peer) send(msg Message, now time.Time) {
	p.sendSeq++
	msg.From = p.self
	msg.Seq = p.sendSeq
	msg.T = now.UnixMilli()
	if err := p.transport.Send(msg); err != nil {
		p.logger.Debug("send failed", "type", msg.Type, "err", err)
	}
}

// notify delivers a session event to the local presentation layer.
func (p *Peer) notify(evt SessionEvent) {
	if p.session != nil {
		p.session.Send(evt)
	}
}
