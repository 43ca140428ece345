package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"
	"github.com/wricardo/mcp-training/pongarena/game/config"
	"github.com/wricardo/mcp-training/pongarena/game/match"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/game/service"
	"github.com/wricardo/mcp-training/pongarena/game/social"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Pong Arena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Pong Arena - MCP Interface

This is a read-only client that proxies requests to the Pong Arena REST API.
Players connect over the websocket; these tools only observe.

AVAILABLE TOOLS:
- server_health: Online players, live rooms and pending invitations
- list_online: Who is connected and whether they are in a game
- list_rooms: Live matches with score and phase
- get_room: Full state of one live match
- list_friends: Friend edges (accepted and pending) of a player
- list_matches: Finished matches, newest first
- get_match: One finished match
- list_configs: Available game configurations`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var noArgs = mcp.ToolInputSchema{
	Type:       "object",
	Properties: map[string]interface{}{},
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_health",
		Description: "Get server status and load",
		InputSchema: noArgs,
	}, c.handleHealth)

	// Presence
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_online",
		Description: "List connected players and their status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"online", "in-game"},
					"description": "Only list players with this status (optional)",
				},
			},
		},
	}, c.handleListOnline)

	// Rooms
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List live matches",
		InputSchema: noArgs,
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get the current state of a live match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": stringProp("Room ID"),
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	// Social
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_friends",
		Description: "List the friend edges of a player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": stringProp("Player identity ID"),
			},
			Required: []string{"player_id"},
		},
	}, c.handleListFriends)

	// Matches
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_matches",
		Description: "List finished matches, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": stringProp("Only matches involving this player (optional)"),
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of matches (optional)",
				},
			},
		},
	}, c.handleListMatches)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_match",
		Description: "Get one finished match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": stringProp("Match ID"),
			},
			Required: []string{"match_id"},
		},
	}, c.handleGetMatch)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: noArgs,
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// arguments returns the tool arguments, tolerating a missing object
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func requiredString(args map[string]interface{}, key string) (string, *mcp.CallToolResult) {
	v := strings.TrimSpace(cast.ToString(args[key]))
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s is required", key))
	}
	return v, nil
}

// Tool handlers

func (c *Client) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var health service.HealthInfo
	if err := c.apiCall(ctx, "GET", "/health", nil, &health); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Status: %s\nUptime: %s\nOnline players: %d\nLive rooms: %d\nPending invitations: %d\nOpen connections: %d\n",
		health.Status, health.Uptime, health.Online, health.Rooms, health.Invitations, health.Connections)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListOnline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path := "/api/presence"
	if status := cast.ToString(args["status"]); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var response struct {
		Count  int                    `json:"count"`
		Online []service.PresenceInfo `json:"online"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPresence(response.Online)), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int             `json:"count"`
		Rooms []room.Snapshot `json:"rooms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Live Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		result += "- " + formatRoomLine(r) + "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, errResult := requiredString(arguments(request), "room_id")
	if errResult != nil {
		return errResult, nil
	}

	var snapshot room.Snapshot
	if err := c.apiCall(ctx, "GET", "/api/rooms/"+url.PathEscape(roomID), nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoom(snapshot)), nil
}

func (c *Client) handleListFriends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	playerID, errResult := requiredString(arguments(request), "player_id")
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		ID    string        `json:"id"`
		Count int           `json:"count"`
		Edges []social.Edge `json:"edges"`
	}
	if err := c.apiCall(ctx, "GET", "/api/friends/"+url.PathEscape(playerID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFriends(playerID, response.Edges)), nil
}

func (c *Client) handleListMatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if player := cast.ToString(args["player_id"]); player != "" {
		params.Set("player", player)
	}
	if limit := cast.ToInt(args["limit"]); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/matches"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Count   int            `json:"count"`
		Total   int            `json:"total"`
		Matches []match.Result `json:"matches"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Finished Matches (%d of %d):\n\n", response.Count, response.Total)
	for _, m := range response.Matches {
		result += "- " + formatMatchLine(m) + "\n"
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	matchID, errResult := requiredString(arguments(request), "match_id")
	if errResult != nil {
		return errResult, nil
	}

	var result match.Result
	if err := c.apiCall(ctx, "GET", "/api/matches/"+url.PathEscape(matchID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMatch(result)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []config.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, cfg := range configs {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Field: %.0fx%.0f, %d ticks/s, first to %d\n\n",
			cfg.Name, cfg.ConfigID, cfg.Description, cfg.FieldWidth, cfg.FieldHeight, cfg.TickRate, cfg.WinningScore)
	}
	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatPresence(online []service.PresenceInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Online Players (%d):\n\n", len(online))
	for _, p := range online {
		fmt.Fprintf(&b, "- %s (%s): %s", p.Name, p.ID, p.Status)
		if p.RoomID != "" {
			fmt.Fprintf(&b, " in room %s", p.RoomID)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatRoomLine(r room.Snapshot) string {
	return fmt.Sprintf("%s: %s %d - %d %s [%s, tick %d]",
		r.ID, r.PlayerA.Name, r.State.ScoreA, r.State.ScoreB, r.PlayerB.Name, r.State.Phase, r.State.Tick)
}

func formatRoom(r room.Snapshot) string {
	s := r.State
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s (config: %s)\n", r.ID, r.Config)
	fmt.Fprintf(&b, "Started: %s\n\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Player A: %s (%s) score %d\n", r.PlayerA.Name, r.PlayerA.ID, s.ScoreA)
	fmt.Fprintf(&b, "Player B: %s (%s) score %d\n\n", r.PlayerB.Name, r.PlayerB.ID, s.ScoreB)
	fmt.Fprintf(&b, "Phase: %s  Tick: %d  Rally hits: %d\n", s.Phase, s.Tick, s.Hits)
	fmt.Fprintf(&b, "Ball: (%.1f, %.1f) velocity (%.2f, %.2f)\n", s.Ball.X, s.Ball.Y, s.Ball.VX, s.Ball.VY)
	fmt.Fprintf(&b, "Paddle A: y=%.1f  Paddle B: y=%.1f\n", s.PaddleA.Y, s.PaddleB.Y)
	return b.String()
}

func formatFriends(id string, edges []social.Edge) string {
	var friends, incoming, outgoing []string
	for _, e := range edges {
		switch {
		case e.Status == social.EdgeAccepted:
			friends = append(friends, e.Other(id))
		case e.Addressee == id:
			incoming = append(incoming, fmt.Sprintf("%s (request %s)", e.Requester, e.ID))
		default:
			outgoing = append(outgoing, fmt.Sprintf("%s (request %s)", e.Addressee, e.ID))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Friends of %s (%d):\n", id, len(friends))
	for _, f := range friends {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	if len(incoming) > 0 {
		fmt.Fprintf(&b, "\nIncoming requests:\n- %s\n", strings.Join(incoming, "\n- "))
	}
	if len(outgoing) > 0 {
		fmt.Fprintf(&b, "\nOutgoing requests:\n- %s\n", strings.Join(outgoing, "\n- "))
	}
	return b.String()
}

func formatMatchLine(m match.Result) string {
	winner := m.Winner
	if winner == "" {
		winner = "none"
	}
	return fmt.Sprintf("%s: %s %d - %d %s, winner %s (%s) at %s",
		m.ID, m.PlayerA, m.ScoreA, m.ScoreB, m.PlayerB, winner, m.Reason, m.FinishedAt.Format("2006-01-02 15:04:05"))
}

func formatMatch(m match.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Match %s (room %s, config %s)\n", m.ID, m.RoomID, m.Config)
	fmt.Fprintf(&b, "%s %d - %d %s\n", m.PlayerA, m.ScoreA, m.ScoreB, m.PlayerB)
	if m.Winner != "" {
		fmt.Fprintf(&b, "Winner: %s\n", m.Winner)
	} else {
		b.WriteString("Winner: none\n")
	}
	fmt.Fprintf(&b, "Reason: %s\n", m.Reason)
	fmt.Fprintf(&b, "Duration: %s (%d ticks)\n", m.FinishedAt.Sub(m.StartedAt).Round(time.Second), m.Ticks)
	return b.String()
}
