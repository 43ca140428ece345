package room

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

const inboxSize = 32

// Reason explains why a match ended
type Reason string

const (
	ReasonCompleted    Reason = "completed"
	ReasonForfeited    Reason = "forfeited"
	ReasonDisconnected Reason = "disconnected"
	ReasonShutdown     Reason = "shutdown"
)

// Outcome is the final result of a room
type Outcome struct {
	RoomID     string        `json:"roomId"`
	PlayerA    auth.Identity `json:"playerA"`
	PlayerB    auth.Identity `json:"playerB"`
	ScoreA     int           `json:"scoreA"`
	ScoreB     int           `json:"scoreB"`
	Winner     string        `json:"winner"`
	Reason     Reason        `json:"reason"`
	Config     string        `json:"config"`
	Ticks      uint64        `json:"ticks"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// Snapshot is a read-only view of a room
type Snapshot struct {
	ID        string           `json:"id"`
	PlayerA   auth.Identity    `json:"playerA"`
	PlayerB   auth.Identity    `json:"playerB"`
	Config    string           `json:"config"`
	StartedAt time.Time        `json:"startedAt"`
	State     engine.GameState `json:"state"`
}

// Broadcaster delivers room events to players
type Broadcaster interface {
	ToIdentities(ids []string, t protocol.EventType, payload any) int
}

type intentCmd struct {
	side   engine.Side
	intent engine.Intent
}

type endCmd struct {
	winner engine.Side
	reason Reason
	reply  chan Outcome
}

// Room is a live match between two players
type Room struct {
	ID        string
	PlayerA   auth.Identity
	PlayerB   auth.Identity
	Config    string
	StartedAt time.Time

	engine   engine.Engine
	interval time.Duration
	ticker   TickerFunc
	out      Broadcaster
	onEnd    func(*Room, Outcome)

	inbox    chan any
	done     chan struct{}
	snapshot atomic.Pointer[Snapshot]
	outcome  atomic.Pointer[Outcome]
}

// Side returns which paddle id controls
func (r *Room) Side(id string) engine.Side {
	switch id {
	case r.PlayerA.ID:
		return engine.SideA
	case r.PlayerB.ID:
		return engine.SideB
	}
	return engine.SideNone
}

// Players returns both identity ids, A first
func (r *Room) Players() []string {
	return []string{r.PlayerA.ID, r.PlayerB.ID}
}

// Snapshot returns the state published after the last tick
func (r *Room) Snapshot() Snapshot {
	return *r.snapshot.Load()
}

// Done is closed once the room has finished
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Outcome returns the final result once the room is done
func (r *Room) Outcome() (Outcome, bool) {
	o := r.outcome.Load()
	if o == nil {
		return Outcome{}, false
	}
	return *o, true
}

func (r *Room) run() {
	defer close(r.done)

	t := r.ticker(r.interval)
	defer t.Stop()

	r.out.ToIdentities(r.Players(), protocol.EventGameStarted, protocol.GameStartedPayload{
		RoomID:  r.ID,
		PlayerA: protocol.Identity(r.PlayerA),
		PlayerB: protocol.Identity(r.PlayerB),
		Config:  r.Config,
	})
	r.publish()

	for {
		select {
		case cmd := <-r.inbox:
			if r.apply(cmd) {
				return
			}

		case <-t.C():
			// Commands that arrived before this tick take effect on it.
			if r.drain() {
				return
			}
			events := r.engine.Step()
			r.publish()
			if events.Finished {
				r.finish(ReasonCompleted)
				return
			}
		}
	}
}

// apply runs one inbox command and reports whether the room ended
func (r *Room) apply(cmd any) bool {
	switch c := cmd.(type) {
	case intentCmd:
		r.engine.SetIntent(c.side, c.intent)
	case endCmd:
		if c.winner != engine.SideNone {
			r.engine.Forfeit(c.winner)
		}
		c.reply <- r.finish(c.reason)
		return true
	}
	return false
}

func (r *Room) drain() bool {
	for {
		select {
		case cmd := <-r.inbox:
			if r.apply(cmd) {
				return true
			}
		default:
			return false
		}
	}
}

// publish stores the snapshot and hands the frame to both players
func (r *Room) publish() {
	state := r.engine.Snapshot()
	r.snapshot.Store(&Snapshot{
		ID:        r.ID,
		PlayerA:   r.PlayerA,
		PlayerB:   r.PlayerB,
		Config:    r.Config,
		StartedAt: r.StartedAt,
		State:     state,
	})
	r.out.ToIdentities(r.Players(), protocol.EventFrameUpdate, protocol.FrameUpdatePayload{
		RoomID: r.ID,
		Frame:  r.engine.Frame(),
	})
}

func (r *Room) finish(reason Reason) Outcome {
	scoreA, scoreB := r.engine.Score()
	outcome := Outcome{
		RoomID:     r.ID,
		PlayerA:    r.PlayerA,
		PlayerB:    r.PlayerB,
		ScoreA:     scoreA,
		ScoreB:     scoreB,
		Reason:     reason,
		Config:     r.Config,
		Ticks:      r.engine.GetState().Tick,
		StartedAt:  r.StartedAt,
		FinishedAt: time.Now(),
	}
	switch r.engine.Winner() {
	case engine.SideA:
		outcome.Winner = r.PlayerA.ID
	case engine.SideB:
		outcome.Winner = r.PlayerB.ID
	}
	r.outcome.Store(&outcome)

	log.Printf("[ROOM] room=%s finished reason=%s score=%d-%d winner=%q", r.ID, reason, scoreA, scoreB, outcome.Winner)

	if r.onEnd != nil {
		r.onEnd(r, outcome)
	}
	return outcome
}
