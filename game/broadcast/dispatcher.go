// Package broadcast delivers server events to connected identities.
//
// A Dispatcher encodes an event once and writes the same bytes to every
// target connection. Offline targets are skipped, delivery is best effort and
// a failed send never aborts the remaining targets.
package broadcast

import (
	"log"

	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

// Resolver finds the live connection of an identity
type Resolver interface {
	Resolve(id string) (presence.Conn, bool)
}

// FriendSource lists the accepted friends of an identity
type FriendSource interface {
	Friends(id string) []string
}

// Dispatcher fans events out to connections
type Dispatcher struct {
	registry Resolver
	friends  FriendSource
}

// NewDispatcher creates a dispatcher. friends may be nil when ToFriends is unused.
func NewDispatcher(registry Resolver, friends FriendSource) *Dispatcher {
	return &Dispatcher{registry: registry, friends: friends}
}

// ToIdentity delivers one event and reports whether the identity was online.
func (d *Dispatcher) ToIdentity(id string, t protocol.EventType, payload any) bool {
	msg, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Failed to encode %s: %v", t, err)
		return false
	}
	return d.Raw(id, msg)
}

// ToIdentities delivers the same event to every online identity in ids and
// returns how many were reached.
func (d *Dispatcher) ToIdentities(ids []string, t protocol.EventType, payload any) int {
	if len(ids) == 0 {
		return 0
	}
	msg, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Failed to encode %s: %v", t, err)
		return 0
	}

	delivered := 0
	for _, id := range ids {
		if d.Raw(id, msg) {
			delivered++
		}
	}
	return delivered
}

// ToFriends delivers an event to the online accepted friends of id.
func (d *Dispatcher) ToFriends(id string, t protocol.EventType, payload any) int {
	if d.friends == nil {
		return 0
	}
	return d.ToIdentities(d.friends.Friends(id), t, payload)
}

// Raw sends pre-encoded bytes to one identity.
func (d *Dispatcher) Raw(id string, msg []byte) bool {
	conn, ok := d.registry.Resolve(id)
	if !ok {
		return false
	}
	if err := conn.Send(msg); err != nil {
		log.Printf("Send to %s failed: %v", id, err)
		return false
	}
	return true
}
