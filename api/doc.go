// Package api provides the read-only HTTP API for Pong Arena.
//
// The api package implements:
//   - Health and load reporting
//   - Presence, room and friend graph inspection
//   - Persisted match history
//   - Game configuration listing
//   - WebSocket upgrade handling
//
// Endpoints:
//
//   - GET /health - Service status, online and room counts
//   - GET /api/presence - Online identities (?status=online|in-game)
//   - GET /api/rooms - Live rooms with state snapshots
//   - GET /api/rooms/{id} - One live room
//   - GET /api/friends/{id} - Friend edges of an identity
//   - GET /api/matches - Finished matches, newest first (?player=, ?limit=)
//   - GET /api/matches/{id} - One finished match
//   - GET /api/configs - Available game configurations
//   - GET /api/configs/{name} - One game configuration
//   - GET /ws - Player websocket
//
// Every mutation happens over the websocket; the HTTP surface never changes
// game state.
//
// Error Responses:
//
// Errors are returned as {"error": "message"} with 404 for unknown rooms,
// matches and configurations, 400 for invalid input and 500 otherwise.
//
// Usage:
//
//	server := api.NewServer(svc, hub)
//	http.ListenAndServe(":8080", server)
package api
