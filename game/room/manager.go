package room

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrShuttingDown = errors.New("room manager is shutting down")
)

// StatusSetter flips the presence status of players entering or leaving a room
type StatusSetter interface {
	SetStatus(id string, status presence.Status) bool
}

// Option configures a Manager
type Option func(*Manager)

// OnEnd registers a callback run on the room goroutine after a match ends
// and the room has been removed.
func OnEnd(fn func(Outcome)) Option {
	return func(m *Manager) { m.onEnd = fn }
}

// WithTicker replaces the wall clock rooms step on
func WithTicker(fn TickerFunc) Option {
	return func(m *Manager) { m.ticker = fn }
}

// Manager handles room lifecycle
type Manager struct {
	rooms    map[string]*Room
	byPlayer map[string]string
	out      Broadcaster
	status   StatusSetter
	ticker   TickerFunc
	onEnd    func(Outcome)
	closing  bool
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewManager creates a room manager. status may be nil.
func NewManager(out Broadcaster, status StatusSetter, opts ...Option) *Manager {
	m := &Manager{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		out:      out,
		status:   status,
		ticker:   NewRealTicker,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a match between two players. The engine is fresh with the
// ball centred and both players are marked in-game.
func (m *Manager) Create(playerA, playerB auth.Identity, config *engine.GameConfig) (*Room, error) {
	if playerA.ID == playerB.ID {
		return nil, gameerr.ErrSelfInvite
	}
	if config == nil {
		config = engine.DefaultGameConfig()
	}

	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	if m.inRoomLocked(playerA.ID) || m.inRoomLocked(playerB.ID) {
		m.mu.Unlock()
		return nil, gameerr.ErrAlreadyInGame
	}

	r := &Room{
		ID:        uuid.NewString(),
		PlayerA:   playerA,
		PlayerB:   playerB,
		Config:    config.Name,
		StartedAt: time.Now(),
		engine:    eng,
		interval:  time.Second / time.Duration(config.TickRate),
		ticker:    m.ticker,
		out:       m.out,
		onEnd:     m.handleEnd,
		inbox:     make(chan any, inboxSize),
		done:      make(chan struct{}),
	}
	r.snapshot.Store(&Snapshot{
		ID:        r.ID,
		PlayerA:   playerA,
		PlayerB:   playerB,
		Config:    r.Config,
		StartedAt: r.StartedAt,
		State:     eng.Snapshot(),
	})

	m.rooms[r.ID] = r
	m.byPlayer[playerA.ID] = r.ID
	m.byPlayer[playerB.ID] = r.ID
	m.wg.Add(1)
	m.mu.Unlock()

	if m.status != nil {
		m.status.SetStatus(playerA.ID, presence.StatusInGame)
		m.status.SetStatus(playerB.ID, presence.StatusInGame)
	}

	log.Printf("[ROOM] room=%s created %s vs %s config=%q", r.ID, playerA.ID, playerB.ID, r.Config)

	go func() {
		defer m.wg.Done()
		r.run()
	}()

	return r, nil
}

// Get retrieves a room by id
func (m *Manager) Get(id string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// RoomOf returns the room an identity is playing in
func (m *Manager) RoomOf(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roomID, ok := m.byPlayer[id]
	if !ok {
		return nil, false
	}
	return m.rooms[roomID], true
}

// List returns snapshots of all live rooms, oldest first
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// SetIntent forwards a paddle intent to the identity's room
func (m *Manager) SetIntent(id string, intent engine.Intent) error {
	r, ok := m.RoomOf(id)
	if !ok {
		return gameerr.ErrNotInGame
	}

	select {
	case r.inbox <- intentCmd{side: r.Side(id), intent: intent}:
		return nil
	case <-r.done:
		return gameerr.ErrNotInGame
	}
}

// Forfeit ends the identity's match and awards it to the opponent
func (m *Manager) Forfeit(id string, reason Reason) (Outcome, error) {
	r, ok := m.RoomOf(id)
	if !ok {
		return Outcome{}, gameerr.ErrNotInGame
	}
	return r.end(r.Side(id).Opponent(), reason)
}

// Destroy ends a room without changing the winner
func (m *Manager) Destroy(roomID string, reason Reason) (Outcome, error) {
	r, err := m.Get(roomID)
	if err != nil {
		return Outcome{}, err
	}
	return r.end(engine.SideNone, reason)
}

// Shutdown ends every live room and waits for their goroutines to exit
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closing = true
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.end(engine.SideNone, ReasonShutdown)
	}
	m.wg.Wait()

	if len(rooms) > 0 {
		log.Printf("[ROOM] shut down %d rooms", len(rooms))
	}
}

// end asks the room goroutine to finish. If the room already finished on its
// own the recorded outcome is returned instead.
func (r *Room) end(winner engine.Side, reason Reason) (Outcome, error) {
	reply := make(chan Outcome, 1)
	select {
	case r.inbox <- endCmd{winner: winner, reason: reason, reply: reply}:
	case <-r.done:
		return r.finalOutcome()
	}

	select {
	case o := <-reply:
		return o, nil
	case <-r.done:
		select {
		case o := <-reply:
			return o, nil
		default:
			return r.finalOutcome()
		}
	}
}

func (r *Room) finalOutcome() (Outcome, error) {
	if o, ok := r.Outcome(); ok {
		return o, nil
	}
	return Outcome{}, ErrRoomNotFound
}

// handleEnd runs on the room goroutine once the match is over
func (m *Manager) handleEnd(r *Room, o Outcome) {
	m.mu.Lock()
	delete(m.rooms, r.ID)
	for _, id := range r.Players() {
		if m.byPlayer[id] == r.ID {
			delete(m.byPlayer, id)
		}
	}
	m.mu.Unlock()

	if m.status != nil {
		for _, id := range r.Players() {
			m.status.SetStatus(id, presence.StatusOnline)
		}
	}

	m.out.ToIdentities(r.Players(), protocol.EventMatchFinished, protocol.MatchFinishedPayload{
		RoomID: o.RoomID,
		Winner: o.Winner,
		ScoreA: o.ScoreA,
		ScoreB: o.ScoreB,
		Reason: string(o.Reason),
	})

	if m.onEnd != nil {
		m.onEnd(o)
	}
}

func (m *Manager) inRoomLocked(id string) bool {
	_, ok := m.byPlayer[id]
	return ok
}
