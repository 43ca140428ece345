package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/events"
	"github.com/wricardo/mcp-training/pongarena/game/broadcast"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/keylock"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/game/social"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

// Options wires the collaborators of a Service. Validator and Configs are
// required; the rest fall back to in-memory or no-op implementations.
type Options struct {
	Validator   auth.CredentialValidator
	Configs     ConfigManager
	Graph       *social.Graph
	Results     match.ResultStore
	Recorder    MatchRecorder
	Publisher   events.Publisher
	RoomOptions []room.Option
}

// Service is the single typed message handler tying presence, the social
// graph, invitations and rooms together.
type Service struct {
	validator auth.CredentialValidator
	configs   ConfigManager
	registry  *presence.Registry
	graph     *social.Graph
	invites   *social.Invitations
	rooms     *room.Manager
	out       *broadcast.Dispatcher
	results   match.ResultStore
	recorder  MatchRecorder
	events    events.Publisher
	locks     *keylock.Locker
	sessions  *sessions
	routes    map[ConnState]map[protocol.EventType]handlerFunc
	startedAt time.Time
}

// NewService creates the service and the room manager it owns
func NewService(opts Options) (*Service, error) {
	if opts.Validator == nil {
		return nil, errors.New("credential validator is required")
	}
	if opts.Configs == nil {
		return nil, errors.New("config manager is required")
	}

	graph := opts.Graph
	if graph == nil {
		var err error
		if graph, err = social.NewGraph(nil); err != nil {
			return nil, err
		}
	}
	results := opts.Results
	if results == nil {
		results = match.NewMemoryStore()
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	registry := presence.NewRegistry()
	s := &Service{
		validator: opts.Validator,
		configs:   opts.Configs,
		registry:  registry,
		graph:     graph,
		invites:   social.NewInvitations(graph, registry),
		out:       broadcast.NewDispatcher(registry, graph),
		results:   results,
		recorder:  opts.Recorder,
		events:    publisher,
		locks:     keylock.New(),
		sessions:  newSessions(),
		startedAt: time.Now(),
	}

	roomOpts := append([]room.Option{room.OnEnd(s.handleRoomEnd)}, opts.RoomOptions...)
	s.rooms = room.NewManager(s.out, registry, roomOpts...)
	s.routes = s.buildRoutes()

	return s, nil
}

// Registry exposes the connection registry
func (s *Service) Registry() *presence.Registry { return s.registry }

// Rooms exposes the room manager
func (s *Service) Rooms() *room.Manager { return s.rooms }

// Shutdown ends every live match
func (s *Service) Shutdown() {
	s.rooms.Shutdown()
}

// Online lists connected identities
func (s *Service) Online(ctx context.Context) []PresenceInfo {
	entries := s.registry.Online()
	out := make([]PresenceInfo, 0, len(entries))
	for _, e := range entries {
		info := PresenceInfo{
			ID:     e.Identity.ID,
			Name:   e.Identity.Name,
			Status: e.Status,
			Since:  e.Since,
		}
		if r, ok := s.rooms.RoomOf(e.Identity.ID); ok {
			info.RoomID = r.ID
		}
		out = append(out, info)
	}
	return out
}

// ListRooms returns snapshots of live rooms
func (s *Service) ListRooms(ctx context.Context) []room.Snapshot {
	return s.rooms.List()
}

// GetRoom returns one live room
func (s *Service) GetRoom(ctx context.Context, roomID string) (room.Snapshot, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return room.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

// FriendsOf returns every edge touching id
func (s *Service) FriendsOf(ctx context.Context, id string) ([]social.Edge, error) {
	if id == "" {
		return nil, gameerr.ErrMissingTarget
	}
	return s.graph.EdgesOf(id), nil
}

// ListMatches returns persisted results, most recent first
func (s *Service) ListMatches(ctx context.Context) ([]match.Result, error) {
	return s.results.List()
}

// GetMatch returns one persisted result
func (s *Service) GetMatch(ctx context.Context, id string) (match.Result, error) {
	return s.results.Load(id)
}

// ListConfigs returns the available game configurations
func (s *Service) ListConfigs(ctx context.Context) ([]*config.ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig returns one game configuration
func (s *Service) LoadConfig(ctx context.Context, name string) (*engine.GameConfig, error) {
	cfg, err := s.configs.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", name, err)
	}
	return cfg, nil
}

// Health reports current load
func (s *Service) Health(ctx context.Context) HealthInfo {
	return HealthInfo{
		Status:      "healthy",
		Online:      s.registry.Count(),
		Rooms:       s.rooms.Count(),
		Invitations: s.invites.Len(),
		Connections: s.sessions.len(),
		StartedAt:   s.startedAt,
		Uptime:      time.Since(s.startedAt).Round(time.Second).String(),
	}
}

// handleRoomEnd runs on the room goroutine. It must not take identity locks:
// callers of Forfeit hold them while waiting for the room to finish.
func (s *Service) handleRoomEnd(o room.Outcome) {
	for _, p := range []auth.Identity{o.PlayerA, o.PlayerB} {
		if s.registry.Status(p.ID) == presence.StatusOnline {
			s.announcePresence(p, presence.StatusOnline)
		}
	}

	if s.recorder != nil {
		s.recorder.Record(match.Result{
			RoomID:     o.RoomID,
			PlayerA:    o.PlayerA.ID,
			PlayerB:    o.PlayerB.ID,
			ScoreA:     o.ScoreA,
			ScoreB:     o.ScoreB,
			Winner:     o.Winner,
			Reason:     string(o.Reason),
			Config:     o.Config,
			Ticks:      o.Ticks,
			StartedAt:  o.StartedAt,
			FinishedAt: o.FinishedAt,
		})
	}

	s.publish(events.SubjectMatchFinished, events.MatchEvent{
		RoomID:  o.RoomID,
		PlayerA: o.PlayerA.ID,
		PlayerB: o.PlayerB.ID,
		ScoreA:  o.ScoreA,
		ScoreB:  o.ScoreB,
		Winner:  o.Winner,
		Reason:  string(o.Reason),
		At:      o.FinishedAt,
	})
}

// announcePresence tells online friends about a status change
func (s *Service) announcePresence(identity auth.Identity, status presence.Status) {
	s.out.ToFriends(identity.ID, protocol.EventPresenceChanged, protocol.PresenceChangedPayload{
		Identity: protocol.Identity(identity),
		Status:   string(status),
	})
	s.publish(events.SubjectPresenceChanged, events.PresenceEvent{
		ID:     identity.ID,
		Name:   identity.Name,
		Status: string(status),
		At:     time.Now(),
	})
}

func (s *Service) publish(subject string, event any) {
	if err := s.events.Publish(context.Background(), subject, event); err != nil {
		log.Printf("Warning: failed to publish %s: %v", subject, err)
	}
}

// identityOf returns the live identity of id, or a bare one when offline
func (s *Service) identityOf(id string) auth.Identity {
	if e, ok := s.registry.Lookup(id); ok {
		return e.Identity
	}
	return auth.Identity{ID: id, Name: id}
}
