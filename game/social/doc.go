// Package social holds the friend graph and the game invitation state machine.
//
// Core Types:
//
//   - Graph: friend edges between identities, at most one per unordered pair
//   - Edge: a pending or accepted friendship, pending edges remember the requester
//   - Invitations: in-memory game invitations between online friends
//   - EdgeStore: persistence for the graph (FileEdgeStore, MemoryEdgeStore)
//
// Friend request lifecycle:
//
//	Request(a, b)            -> pending edge, requester a
//	Respond(b, id, true)     -> accepted edge, symmetric for both sides
//	Respond(b, id, false)    -> edge deleted, no tombstone
//
// Invitation lifecycle:
//
//	Invite(a, b, cfg)        -> pending invitation a->b
//	RespondInvite(b, a, ok)  -> removed; accepted invitations are re-checked
//	DropFor(a)               -> every invitation from or to a is removed
//
// Concurrency:
//
// Graph and Invitations are guarded by their own RWMutex. Every operation
// validates before it commits so a failed call never leaves partial state.
// Multi-step flows spanning both types (accept then create a room) are
// serialized by the caller.
package social
