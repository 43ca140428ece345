package service

import (
	"context"
	"errors"
	"log"

	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

type handlerFunc func(ctx context.Context, cs *connSession, env protocol.Envelope) error

func (s *Service) buildRoutes() map[ConnState]map[protocol.EventType]handlerFunc {
	return map[ConnState]map[protocol.EventType]handlerFunc{
		StateAwaitingAuth: {
			protocol.EventAuthenticate: s.handleAuthenticate,
		},
		StateAuthenticated: {
			protocol.EventAuthenticate:           s.handleReauthenticate,
			protocol.EventFriendRequest:          s.handleFriendRequest,
			protocol.EventFriendRequestResponse:  s.handleFriendRequestResponse,
			protocol.EventGameInvitation:         s.handleGameInvitation,
			protocol.EventGameInvitationResponse: s.handleGameInvitationResponse,
			protocol.EventPaddleIntent:           s.handlePaddleIntent,
			protocol.EventForfeit:                s.handleForfeit,
		},
	}
}

// OnConnect starts tracking a connection in the awaiting-auth state
func (s *Service) OnConnect(conn presence.Conn) {
	s.sessions.add(conn)
}

// OnMessage decodes one client event and routes it by connection state.
// Auth failures close the connection, every other failure is answered with
// an error event.
func (s *Service) OnMessage(ctx context.Context, conn presence.Conn, msg []byte) {
	cs, ok := s.sessions.get(conn)
	if !ok {
		cs = s.sessions.add(conn)
	}

	state, _ := cs.snapshot()
	if state == StateClosed {
		return
	}

	if err := s.dispatch(ctx, cs, state, msg); err != nil {
		s.fail(cs, err)
	}
}

func (s *Service) dispatch(ctx context.Context, cs *connSession, state ConnState, msg []byte) error {
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		if state == StateAwaitingAuth {
			return gameerr.Wrap(gameerr.ErrNotAuthenticated, err)
		}
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}

	handler, ok := s.routes[state][env.Type]
	if !ok {
		if state == StateAwaitingAuth {
			return gameerr.ErrNotAuthenticated
		}
		return gameerr.ErrUnknownEvent
	}
	return handler(ctx, cs, env)
}

func (s *Service) fail(cs *connSession, err error) {
	ge := gameerr.From(err)
	if ge.Kind == gameerr.KindInternal {
		log.Printf("Internal error handling message: %v", err)
	}
	if sendErr := cs.conn.Send(protocol.EncodeError(ge)); sendErr != nil {
		log.Printf("Failed to send error event: %v", sendErr)
	}
	if gameerr.IsAuth(ge) {
		cs.close()
		cs.conn.Close()
	}
}

// OnDisconnect runs the synchronous teardown. Pending invitations are
// dropped and the presence entry is removed before a live match is
// forfeited, so the match end does not report the leaver back online.
// Friends then see a single offline change. A connection that was already
// replaced by a newer one for the same identity leaves everything untouched.
func (s *Service) OnDisconnect(conn presence.Conn) {
	cs, ok := s.sessions.remove(conn)
	if !ok {
		return
	}
	state, identity := cs.snapshot()
	cs.close()
	if state != StateAuthenticated {
		return
	}

	unlock := s.locks.Lock(identity.ID)
	defer unlock()

	if current, ok := s.registry.Resolve(identity.ID); !ok || current != conn {
		return
	}

	s.cancelInvitations(identity.ID, "disconnected")

	_, removed := s.registry.Unregister(conn)

	if _, err := s.rooms.Forfeit(identity.ID, room.ReasonDisconnected); err != nil && !errors.Is(err, gameerr.ErrNotInGame) {
		log.Printf("Forfeit on disconnect for %s failed: %v", identity.ID, err)
	}

	if removed {
		s.announcePresence(identity, presence.StatusOffline)
	}
}

// cancelInvitations drops every invitation involving id and tells the
// counterparts. Caller holds id's lock.
func (s *Service) cancelInvitations(id, reason string) {
	for _, inv := range s.invites.DropFor(id) {
		other := inv.To
		if other == id {
			other = inv.From
		}
		s.out.ToIdentity(other, protocol.EventGameInvitationCancelled, protocol.GameInvitationCancelledPayload{
			From:   inv.From,
			Reason: reason,
		})
	}
}
