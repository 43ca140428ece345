// Package websocket provides the player transport for Pong Arena.
//
// The websocket package implements:
//   - Connection upgrade and lifecycle management
//   - One read goroutine and one write goroutine per client
//   - Non-blocking, FIFO per-client send buffers
//   - Keepalive pings with read deadlines
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub tracks every
// open connection. The hub is identity-agnostic: each Client is handed to a
// service.ConnectionHandler, which decides who it belongs to once the client
// authenticates.
//
// Message Protocol:
//
// Each websocket text frame carries exactly one protocol.Envelope in either
// direction. See package protocol for the event catalogue.
//
// Usage:
//
//	hub := websocket.NewHub(svc)
//	go hub.Run()
//	defer hub.Stop()
//
//	router.HandleFunc("/ws", hub.ServeWS)
//
// Connection Lifecycle:
//
// 1. Client connects and is registered with the hub
// 2. The handler sees OnConnect and waits for authenticate
// 3. Every inbound frame is passed to OnMessage on the read goroutine
// 4. Close flushes queued frames, then sends a close frame
// 5. When the read loop ends, OnDisconnect runs before the client is dropped
//
// Concurrency:
//
// Send never blocks. A client that falls sendBufferSize frames behind is
// closed rather than allowed to stall a room's tick loop.
package websocket
