// Package mcp exposes Pong Arena to MCP clients.
//
// The mcp package implements:
//   - An MCP server whose tools proxy the read-only REST API
//   - Plain-text formatting of presence, rooms, friends and match results
//   - Stdio and HTTP transport modes
//
// MCP Tools:
//   - server_health: Service status and load
//   - list_online: Connected players, optionally filtered by status
//   - list_rooms: Live matches
//   - get_room: Full state of one live match
//   - list_friends: Accepted and pending friend edges of a player
//   - list_matches: Finished matches, optionally filtered by player
//   - get_match: One finished match
//   - list_configs: Available game configurations
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp handled with GetMCPServer().HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
