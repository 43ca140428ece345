package service

import (
	"sync"

	"github.com/wricardo/mcp-training/pongarena/auth"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
)

// ConnState is where a connection is in its lifecycle
type ConnState int

const (
	StateAwaitingAuth ConnState = iota
	StateAuthenticated
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateAwaitingAuth:
		return "awaiting-auth"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// connSession is the per-connection state object
type connSession struct {
	conn     presence.Conn
	state    ConnState
	identity auth.Identity
	mu       sync.Mutex
}

func (c *connSession) snapshot() (ConnState, auth.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.identity
}

func (c *connSession) authenticate(identity auth.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingAuth {
		return false
	}
	c.state = StateAuthenticated
	c.identity = identity
	return true
}

func (c *connSession) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateClosed
}

type sessions struct {
	byConn map[presence.Conn]*connSession
	mu     sync.RWMutex
}

func newSessions() *sessions {
	return &sessions{byConn: make(map[presence.Conn]*connSession)}
}

func (s *sessions) add(conn presence.Conn) *connSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := &connSession{conn: conn, state: StateAwaitingAuth}
	s.byConn[conn] = cs
	return cs
}

func (s *sessions) get(conn presence.Conn) (*connSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.byConn[conn]
	return cs, ok
}

func (s *sessions) remove(conn presence.Conn) (*connSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs, ok := s.byConn[conn]
	delete(s.byConn, conn)
	return cs, ok
}

func (s *sessions) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byConn)
}
