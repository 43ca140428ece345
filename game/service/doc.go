// Package service ties the Pong Arena components into one message handler.
//
// The service package implements:
//   - A per-connection state object (awaiting-auth, authenticated, closed)
//   - Typed dispatch of client events, routed by connection state
//   - Friend request and game invitation flows with their notifications
//   - Synchronous disconnect teardown
//   - The read side used by the HTTP API and MCP tools
//
// Core Types:
//
// Service implements ConnectionHandler for the websocket transport and
// ArenaService for the HTTP API. It owns the presence registry, the
// invitation state machine and the room manager; the friend graph, result
// store and event publisher are injected.
//
// Error Handling:
//
// Handlers return gameerr errors. An AuthError is answered with an error
// event and the connection is closed; every other kind is answered with an
// error event and the connection stays open.
//
// Concurrency:
//
// Flows that touch several identities take per-identity locks from a
// keylock.Locker, always in sorted order, so unrelated players never wait on
// each other. Room teardown callbacks run on the room goroutine and never
// take identity locks.
//
// Usage:
//
//	svc, err := service.NewService(service.Options{
//		Validator: validator,
//		Configs:   configManager,
//		Graph:     graph,
//		Results:   store,
//		Recorder:  recorder,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hub := websocket.NewHub(svc)
//	go hub.Run()
package service
