// Package room runs live matches for Pong Arena.
//
// The room package implements:
//   - One goroutine per match driving the engine at a fixed tick rate
//   - Paddle intents delivered through the room inbox
//   - Forfeit and teardown handled inside the room goroutine
//   - Lookup of a room by id or by participant
//
// Core Types:
//
// Manager owns every live room and the player to room index. Room owns one
// engine and is the only goroutine that ever steps or mutates it. Snapshot
// is the read-only copy of a room published after every tick.
//
// Room Identifiers:
//
// Rooms use UUIDs so ids are never reused across restarts.
//
// Concurrency:
//
// Network handlers never touch engine state. They post commands to the room
// inbox and the room applies them between ticks. Frame N is handed to both
// players before frame N+1 is computed. Teardown always runs on the room
// goroutine; Destroy and Forfeit post an end command and wait for the final
// Outcome, so a match ends exactly once whichever path gets there first.
//
// The end callback runs on the room goroutine. It must not block on locks
// held by callers of Destroy or Forfeit.
//
// Usage:
//
//	manager := room.NewManager(dispatcher, registry, room.OnEnd(record))
//
//	r, err := manager.Create(alice, bob, config)
//	if err != nil {
//		return err
//	}
//
//	manager.SetIntent(alice.ID, engine.IntentUp)
//	outcome, err := manager.Forfeit(bob.ID, room.ReasonForfeited)
package room
