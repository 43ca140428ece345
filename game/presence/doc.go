// Package presence provides the connection registry for Pong Arena.
//
// The registry is the single source of truth for who is online. It keeps a
// bijective mapping between identities and live connections:
//   - one entry per identity, a newer connection replaces the older one
//   - removal is keyed by connection handle so stale handles are harmless
//   - every entry carries a status, online or in-game
//
// Concurrency:
//
// All methods are safe for concurrent use. Critical sections only touch the
// two maps and never call into a connection, so a slow client cannot stall
// the registry.
package presence
