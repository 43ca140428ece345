package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/game/service"
	"github.com/wricardo/mcp-training/pongarena/game/social"
	"github.com/wricardo/mcp-training/pongarena/transport/websocket"
)

// MockArenaService implements service.ArenaService for testing
type MockArenaService struct {
	OnlineFunc      func(ctx context.Context) []service.PresenceInfo
	ListRoomsFunc   func(ctx context.Context) []room.Snapshot
	GetRoomFunc     func(ctx context.Context, roomID string) (room.Snapshot, error)
	FriendsOfFunc   func(ctx context.Context, id string) ([]social.Edge, error)
	ListMatchesFunc func(ctx context.Context) ([]match.Result, error)
	GetMatchFunc    func(ctx context.Context, id string) (match.Result, error)
	ListConfigsFunc func(ctx context.Context) ([]*config.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, name string) (*engine.GameConfig, error)
}

func (m *MockArenaService) Online(ctx context.Context) []service.PresenceInfo {
	if m.OnlineFunc != nil {
		return m.OnlineFunc(ctx)
	}
	return []service.PresenceInfo{}
}

func (m *MockArenaService) ListRooms(ctx context.Context) []room.Snapshot {
	if m.ListRoomsFunc != nil {
		return m.ListRoomsFunc(ctx)
	}
	return []room.Snapshot{}
}

func (m *MockArenaService) GetRoom(ctx context.Context, roomID string) (room.Snapshot, error) {
	if m.GetRoomFunc != nil {
		return m.GetRoomFunc(ctx, roomID)
	}
	return room.Snapshot{}, room.ErrRoomNotFound
}

func (m *MockArenaService) FriendsOf(ctx context.Context, id string) ([]social.Edge, error) {
	if m.FriendsOfFunc != nil {
		return m.FriendsOfFunc(ctx, id)
	}
	return []social.Edge{}, nil
}

func (m *MockArenaService) ListMatches(ctx context.Context) ([]match.Result, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx)
	}
	return []match.Result{}, nil
}

func (m *MockArenaService) GetMatch(ctx context.Context, id string) (match.Result, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(ctx, id)
	}
	return match.Result{}, match.ErrResultNotFound
}

func (m *MockArenaService) ListConfigs(ctx context.Context) ([]*config.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*config.ConfigInfo{}, nil
}

func (m *MockArenaService) LoadConfig(ctx context.Context, name string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, name)
	}
	return &engine.GameConfig{Name: name, Description: "Test config"}, nil
}

func (m *MockArenaService) Health(ctx context.Context) service.HealthInfo {
	return service.HealthInfo{Status: "healthy", Online: 2, Rooms: 1}
}

// nopHandler accepts connections and ignores their traffic
type nopHandler struct{}

func (nopHandler) OnConnect(presence.Conn)                          {}
func (nopHandler) OnMessage(context.Context, presence.Conn, []byte) {}
func (nopHandler) OnDisconnect(presence.Conn)                       {}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockArenaService) *Server {
	hub := websocket.NewHub(nopHandler{})
	go hub.Run()
	t.Cleanup(hub.Stop)
	return NewServer(mockService, hub)
}

func doGet(server *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockArenaService{})

	for _, path := range []string{"/health", "/api"} {
		t.Run(path, func(t *testing.T) {
			w := doGet(server, path)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp service.HealthInfo
			parseResponse(t, w, &resp)
			if resp.Status != "healthy" || resp.Online != 2 || resp.Rooms != 1 {
				t.Errorf("Unexpected health %+v", resp)
			}
		})
	}
}

func TestPresence(t *testing.T) {
	mock := &MockArenaService{
		OnlineFunc: func(ctx context.Context) []service.PresenceInfo {
			return []service.PresenceInfo{
				{ID: "alice", Status: presence.StatusInGame, RoomID: "room-1"},
				{ID: "bob", Status: presence.StatusInGame, RoomID: "room-1"},
				{ID: "carol", Status: presence.StatusOnline},
			}
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		name      string
		path      string
		wantCount int
	}{
		{"all", "/api/presence", 3},
		{"in-game only", "/api/presence?status=in-game", 2},
		{"online only", "/api/presence?status=online", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(server, tt.path)
			var resp struct {
				Count  int                    `json:"count"`
				Online []service.PresenceInfo `json:"online"`
			}
			parseResponse(t, w, &resp)
			if resp.Count != tt.wantCount || len(resp.Online) != tt.wantCount {
				t.Errorf("Expected %d entries, got %d", tt.wantCount, resp.Count)
			}
		})
	}
}

func TestRooms(t *testing.T) {
	snap := room.Snapshot{
		ID:      "room-1",
		PlayerA: auth.Identity{ID: "alice", Name: "Alice"},
		PlayerB: auth.Identity{ID: "bob", Name: "Bob"},
		Config:  "classic",
		State:   engine.GameState{Tick: 42, ScoreA: 1},
	}
	mock := &MockArenaService{
		ListRoomsFunc: func(ctx context.Context) []room.Snapshot { return []room.Snapshot{snap} },
		GetRoomFunc: func(ctx context.Context, roomID string) (room.Snapshot, error) {
			if roomID != "room-1" {
				return room.Snapshot{}, room.ErrRoomNotFound
			}
			return snap, nil
		},
	}
	server := setupTestServer(t, mock)

	t.Run("list", func(t *testing.T) {
		var resp struct {
			Count int             `json:"count"`
			Rooms []room.Snapshot `json:"rooms"`
		}
		parseResponse(t, doGet(server, "/api/rooms"), &resp)
		if resp.Count != 1 || resp.Rooms[0].ID != "room-1" {
			t.Errorf("Unexpected rooms %+v", resp)
		}
	})

	tests := []struct {
		name           string
		roomID         string
		expectedStatus int
	}{
		{"existing room", "room-1", http.StatusOK},
		{"unknown room", "nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(server, "/api/rooms/"+tt.roomID)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp room.Snapshot
			parseResponse(t, w, &resp)
			if resp.State.Tick != 42 || resp.PlayerA.Name != "Alice" {
				t.Errorf("Unexpected snapshot %+v", resp)
			}
		})
	}
}

func TestFriends(t *testing.T) {
	mock := &MockArenaService{
		FriendsOfFunc: func(ctx context.Context, id string) ([]social.Edge, error) {
			if id == "alice" {
				return []social.Edge{
					{ID: "req-1", Requester: "alice", Addressee: "bob", Status: social.EdgeAccepted},
					{ID: "req-2", Requester: "carol", Addressee: "alice", Status: social.EdgePending},
				}, nil
			}
			return []social.Edge{}, nil
		},
	}
	server := setupTestServer(t, mock)

	var resp struct {
		ID    string        `json:"id"`
		Count int           `json:"count"`
		Edges []social.Edge `json:"edges"`
	}
	w := doGet(server, "/api/friends/alice")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	parseResponse(t, w, &resp)
	if resp.ID != "alice" || resp.Count != 2 {
		t.Errorf("Unexpected friends response %+v", resp)
	}

	mock.FriendsOfFunc = func(ctx context.Context, id string) ([]social.Edge, error) {
		return nil, gameerr.ErrMissingTarget
	}
	if w := doGet(server, "/api/friends/x"); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for validation error, got %d", w.Code)
	}
}

func TestMatches(t *testing.T) {
	now := time.Now()
	results := []match.Result{
		{ID: "m3", PlayerA: "alice", PlayerB: "bob", Winner: "alice", FinishedAt: now},
		{ID: "m2", PlayerA: "carol", PlayerB: "dave", Winner: "dave", FinishedAt: now.Add(-time.Minute)},
		{ID: "m1", PlayerA: "bob", PlayerB: "carol", Winner: "bob", FinishedAt: now.Add(-time.Hour)},
	}
	mock := &MockArenaService{
		ListMatchesFunc: func(ctx context.Context) ([]match.Result, error) { return results, nil },
		GetMatchFunc: func(ctx context.Context, id string) (match.Result, error) {
			for _, r := range results {
				if r.ID == id {
					return r, nil
				}
			}
			return match.Result{}, fmt.Errorf("load %s: %w", id, match.ErrResultNotFound)
		},
	}
	server := setupTestServer(t, mock)

	listTests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{"all", "/api/matches", []string{"m3", "m2", "m1"}},
		{"limit", "/api/matches?limit=2", []string{"m3", "m2"}},
		{"player filter", "/api/matches?player=bob", []string{"m3", "m1"}},
		{"filter and limit", "/api/matches?player=carol&limit=1", []string{"m2"}},
		{"bad limit ignored", "/api/matches?limit=abc", []string{"m3", "m2", "m1"}},
	}

	for _, tt := range listTests {
		t.Run(tt.name, func(t *testing.T) {
			var resp struct {
				Count   int            `json:"count"`
				Total   int            `json:"total"`
				Matches []match.Result `json:"matches"`
			}
			parseResponse(t, doGet(server, tt.path), &resp)
			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if len(resp.Matches) != len(tt.wantIDs) {
				t.Fatalf("Expected %d matches, got %d", len(tt.wantIDs), len(resp.Matches))
			}
			for i, id := range tt.wantIDs {
				if resp.Matches[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Matches[i].ID)
				}
			}
		})
	}

	t.Run("get existing", func(t *testing.T) {
		var resp match.Result
		w := doGet(server, "/api/matches/m2")
		parseResponse(t, w, &resp)
		if w.Code != http.StatusOK || resp.Winner != "dave" {
			t.Errorf("Unexpected response %d %+v", w.Code, resp)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if w := doGet(server, "/api/matches/zzz"); w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		mock.ListMatchesFunc = func(ctx context.Context) ([]match.Result, error) {
			return nil, fmt.Errorf("disk error")
		}
		w := doGet(server, "/api/matches")
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", w.Code)
		}
		var resp map[string]string
		parseResponse(t, w, &resp)
		if resp["error"] != "disk error" {
			t.Errorf("Expected error 'disk error', got %s", resp["error"])
		}
	})
}

func TestConfigs(t *testing.T) {
	mock := &MockArenaService{
		ListConfigsFunc: func(ctx context.Context) ([]*config.ConfigInfo, error) {
			return []*config.ConfigInfo{
				{ConfigID: "classic", Name: "Classic", WinningScore: 5},
				{ConfigID: "quick", Name: "Quick", WinningScore: 3},
			}, nil
		},
		LoadConfigFunc: func(ctx context.Context, name string) (*engine.GameConfig, error) {
			if name != "classic" {
				return nil, fmt.Errorf("failed to load config %s: %w", name, config.ErrConfigNotFound)
			}
			return engine.DefaultGameConfig(), nil
		},
	}
	server := setupTestServer(t, mock)

	var list []*config.ConfigInfo
	parseResponse(t, doGet(server, "/api/configs"), &list)
	if len(list) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(list))
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"by name", "/api/configs/classic", http.StatusOK},
		{"json extension stripped", "/api/configs/classic.json", http.StatusOK},
		{"yaml extension stripped", "/api/configs/classic.yaml", http.StatusOK},
		{"unknown", "/api/configs/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(server, tt.path)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := setupTestServer(t, &MockArenaService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("POST", "/api/rooms", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	server := setupTestServer(t, &MockArenaService{})
	ts := httptest.NewServer(server)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	conn.Close()

	noHub := NewServer(&MockArenaService{}, nil)
	if w := doGet(noHub, "/ws"); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a hub, got %d", w.Code)
	}
}
