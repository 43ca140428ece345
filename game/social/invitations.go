package social

import (
	"sort"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
)

// Invitation is a pending game invitation
type Invitation struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Config    string    `json:"config,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FriendChecker answers whether two identities are friends
type FriendChecker interface {
	AreFriends(a, b string) bool
}

// PresenceChecker reports the presence status of an identity
type PresenceChecker interface {
	Status(id string) presence.Status
}

// Invitations tracks pending game invitations in memory, at most one per
// unordered pair
type Invitations struct {
	pending  map[pairKey]Invitation
	friends  FriendChecker
	presence PresenceChecker
	mu       sync.RWMutex
}

func NewInvitations(friends FriendChecker, presence PresenceChecker) *Invitations {
	return &Invitations{
		pending:  make(map[pairKey]Invitation),
		friends:  friends,
		presence: presence,
	}
}

// Invite records an invitation after checking friendship and availability.
func (iv *Invitations) Invite(from, to, config string) (Invitation, error) {
	if to == "" {
		return Invitation{}, gameerr.ErrMissingTarget
	}
	if from == to {
		return Invitation{}, gameerr.ErrSelfInvite
	}
	if !iv.friends.AreFriends(from, to) {
		return Invitation{}, gameerr.ErrNotFriends
	}

	switch iv.presence.Status(to) {
	case presence.StatusOffline:
		return Invitation{}, gameerr.ErrRecipientOffline
	case presence.StatusInGame:
		return Invitation{}, gameerr.ErrAlreadyInGame
	}
	if iv.presence.Status(from) == presence.StatusInGame {
		return Invitation{}, gameerr.ErrAlreadyInGame
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()

	k := keyOf(from, to)
	if _, exists := iv.pending[k]; exists {
		return Invitation{}, gameerr.ErrInvitationPending
	}
	inv := Invitation{From: from, To: to, Config: config, CreatedAt: time.Now()}
	iv.pending[k] = inv
	return inv, nil
}

// RespondInvite removes the invitation from -> to. Only the invitee can
// answer. An accepted invitation is re-checked: both sides must still be
// online and out of a game.
func (iv *Invitations) RespondInvite(to, from string, accept bool) (Invitation, error) {
	iv.mu.Lock()
	k := keyOf(from, to)
	inv, ok := iv.pending[k]
	ok = ok && inv.From == from && inv.To == to
	if ok {
		delete(iv.pending, k)
	}
	iv.mu.Unlock()

	if !ok {
		return Invitation{}, gameerr.ErrInvitationNotFound
	}
	if !accept {
		return inv, nil
	}

	for _, id := range []string{from, to} {
		switch iv.presence.Status(id) {
		case presence.StatusOffline:
			return inv, gameerr.ErrStaleInvitation
		case presence.StatusInGame:
			return inv, gameerr.ErrAlreadyInGame
		}
	}
	return inv, nil
}

// DropFor removes every invitation from or to id and returns them
func (iv *Invitations) DropFor(id string) []Invitation {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	var dropped []Invitation
	for k, inv := range iv.pending {
		if inv.From == id || inv.To == id {
			dropped = append(dropped, inv)
			delete(iv.pending, k)
		}
	}
	sortInvitations(dropped)
	return dropped
}

// For returns the invitations sent or received by id
func (iv *Invitations) For(id string) []Invitation {
	iv.mu.RLock()
	defer iv.mu.RUnlock()

	var out []Invitation
	for _, inv := range iv.pending {
		if inv.From == id || inv.To == id {
			out = append(out, inv)
		}
	}
	sortInvitations(out)
	return out
}

// Len returns the number of pending invitations
func (iv *Invitations) Len() int {
	iv.mu.RLock()
	defer iv.mu.RUnlock()
	return len(iv.pending)
}

func sortInvitations(invs []Invitation) {
	sort.Slice(invs, func(i, j int) bool {
		if invs[i].CreatedAt.Equal(invs[j].CreatedAt) {
			return invs[i].From+invs[i].To < invs[j].From+invs[j].To
		}
		return invs[i].CreatedAt.Before(invs[j].CreatedAt)
	})
}
