package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/game/social"
)

// ArenaService is the read side used by the HTTP API and MCP tools
type ArenaService interface {
	// Presence
	Online(ctx context.Context) []PresenceInfo

	// Rooms
	ListRooms(ctx context.Context) []room.Snapshot
	GetRoom(ctx context.Context, roomID string) (room.Snapshot, error)

	// Social
	FriendsOf(ctx context.Context, id string) ([]social.Edge, error)

	// Matches
	ListMatches(ctx context.Context) ([]match.Result, error)
	GetMatch(ctx context.Context, id string) (match.Result, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*config.ConfigInfo, error)
	LoadConfig(ctx context.Context, name string) (*engine.GameConfig, error)

	Health(ctx context.Context) HealthInfo
}

// ConnectionHandler receives connection lifecycle events from a transport
type ConnectionHandler interface {
	OnConnect(conn presence.Conn)
	OnMessage(ctx context.Context, conn presence.Conn, msg []byte)
	OnDisconnect(conn presence.Conn)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	Resolve(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*config.ConfigInfo, error)
	GetDefault() *engine.GameConfig
}

// MatchRecorder hands finished matches to persistence without blocking
type MatchRecorder interface {
	Record(result match.Result) bool
}

// PresenceInfo is the public view of a presence entry
type PresenceInfo struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Status presence.Status `json:"status"`
	Since  time.Time       `json:"since"`
	RoomID string          `json:"room_id,omitempty"`
}

// HealthInfo summarizes server load
type HealthInfo struct {
	Status      string    `json:"status"`
	Online      int       `json:"online"`
	Rooms       int       `json:"rooms"`
	Invitations int       `json:"invitations"`
	Connections int       `json:"connections"`
	StartedAt   time.Time `json:"started_at"`
	Uptime      string    `json:"uptime"`
}
