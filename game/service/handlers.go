package service

import (
	"context"
	"log"
	"time"

	"github.com/wricardo/mcp-training/pongarena/events"
	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
	"github.com/wricardo/mcp-training/pongarena/game/presence"
	"github.com/wricardo/mcp-training/pongarena/game/room"
	"github.com/wricardo/mcp-training/pongarena/protocol"
)

func (s *Service) handleAuthenticate(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.AuthenticatePayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMissingToken, err)
	}

	identity, err := s.validator.Validate(ctx, p.Token)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(identity.ID)
	defer unlock()

	if !cs.authenticate(identity) {
		return gameerr.ErrAlreadyAuthenticated
	}

	replaced := s.registry.Register(identity, cs.conn)
	if replaced != nil && replaced != cs.conn {
		if old, ok := s.sessions.get(replaced); ok {
			old.close()
		}
		replaced.Close()
		log.Printf("Identity %s reconnected, closed previous connection", identity.ID)
	}

	friendIDs := s.graph.Friends(identity.ID)
	friends := make([]protocol.FriendStatus, 0, len(friendIDs))
	for _, id := range friendIDs {
		friends = append(friends, protocol.FriendStatus{
			Identity: protocol.Identity(s.identityOf(id)),
			Status:   string(s.registry.Status(id)),
		})
	}

	incoming := s.graph.Pending(identity.ID)
	pending := make([]protocol.PendingRequest, 0, len(incoming))
	for _, e := range incoming {
		pending = append(pending, protocol.PendingRequest{
			RequestID: e.ID,
			From:      protocol.Identity(s.identityOf(e.Requester)),
		})
	}

	outstanding := s.invites.For(identity.ID)
	invitations := make([]protocol.PendingInvitation, 0, len(outstanding))
	for _, inv := range outstanding {
		invitations = append(invitations, protocol.PendingInvitation{
			From:   protocol.Identity(s.identityOf(inv.From)),
			To:     inv.To,
			Config: inv.Config,
		})
	}

	s.send(cs.conn, protocol.EventAuthenticated, protocol.AuthenticatedPayload{
		Identity:    protocol.Identity(identity),
		Friends:     friends,
		Pending:     pending,
		Invitations: invitations,
	})

	if replaced == nil {
		s.announcePresence(identity, s.registry.Status(identity.ID))
	}
	return nil
}

func (s *Service) handleReauthenticate(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	return gameerr.ErrAlreadyAuthenticated
}

func (s *Service) handleFriendRequest(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.FriendRequestPayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}
	_, me := cs.snapshot()

	unlock := s.locks.Lock(me.ID, p.To)
	defer unlock()

	edge, err := s.graph.Request(me.ID, p.To)
	if err != nil {
		return err
	}

	s.send(cs.conn, protocol.EventFriendRequestSent, protocol.FriendRequestSentPayload{
		RequestID: edge.ID,
		To:        p.To,
	})
	s.out.ToIdentity(p.To, protocol.EventFriendRequestReceived, protocol.FriendRequestReceivedPayload{
		RequestID: edge.ID,
		From:      protocol.Identity(me),
	})
	return nil
}

func (s *Service) handleFriendRequestResponse(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.FriendRequestResponsePayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}
	_, me := cs.snapshot()

	pending, ok := s.graph.ByID(p.RequestID)
	if !ok {
		return gameerr.ErrRequestNotFound
	}

	unlock := s.locks.Lock(me.ID, pending.Requester)
	defer unlock()

	edge, err := s.graph.Respond(me.ID, p.RequestID, p.Accept)
	if err != nil {
		return err
	}

	if !p.Accept {
		s.send(cs.conn, protocol.EventFriendRequestDeclined, protocol.FriendRequestDeclinedPayload{
			RequestID: edge.ID,
			From:      edge.Requester,
		})
		return nil
	}

	requester := s.identityOf(edge.Requester)
	s.send(cs.conn, protocol.EventFriendRequestAccepted, protocol.FriendRequestAcceptedPayload{
		RequestID: edge.ID,
		Friend:    protocol.Identity(requester),
	})
	s.out.ToIdentity(requester.ID, protocol.EventFriendRequestAccepted, protocol.FriendRequestAcceptedPayload{
		RequestID: edge.ID,
		Friend:    protocol.Identity(me),
	})

	// New friends learn each other's presence straight away.
	if status := s.registry.Status(requester.ID); status != presence.StatusOffline {
		s.send(cs.conn, protocol.EventPresenceChanged, protocol.PresenceChangedPayload{
			Identity: protocol.Identity(requester),
			Status:   string(status),
		})
		s.out.ToIdentity(requester.ID, protocol.EventPresenceChanged, protocol.PresenceChangedPayload{
			Identity: protocol.Identity(me),
			Status:   string(s.registry.Status(me.ID)),
		})
	}

	s.publish(events.SubjectFriendshipAccepted, events.FriendshipEvent{
		RequestID: edge.ID,
		Requester: edge.Requester,
		Addressee: edge.Addressee,
		At:        time.Now(),
	})
	return nil
}

func (s *Service) handleGameInvitation(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.GameInvitationPayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}
	_, me := cs.snapshot()

	unlock := s.locks.Lock(me.ID, p.To)
	defer unlock()

	if p.Config != "" {
		if _, err := s.configs.Resolve(p.Config); err != nil {
			return err
		}
	}

	inv, err := s.invites.Invite(me.ID, p.To, p.Config)
	if err != nil {
		return err
	}

	s.send(cs.conn, protocol.EventGameInvitationSent, protocol.GameInvitationSentPayload{To: inv.To})
	s.out.ToIdentity(inv.To, protocol.EventGameInvitationReceived, protocol.GameInvitationReceivedPayload{
		From:   protocol.Identity(me),
		Config: inv.Config,
	})
	return nil
}

func (s *Service) handleGameInvitationResponse(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.GameInvitationResponsePayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}
	_, me := cs.snapshot()

	unlock := s.locks.Lock(me.ID, p.From)
	defer unlock()

	inv, err := s.invites.RespondInvite(me.ID, p.From, p.Accept)
	if err != nil {
		return err
	}

	if !p.Accept {
		declined := protocol.GameInvitationDeclinedPayload{By: me.ID}
		s.out.ToIdentity(inv.From, protocol.EventGameInvitationDeclined, declined)
		s.send(cs.conn, protocol.EventGameInvitationDeclined, declined)
		return nil
	}

	cfg, err := s.configs.Resolve(inv.Config)
	if err != nil {
		return err
	}

	inviter := s.identityOf(inv.From)
	r, err := s.rooms.Create(inviter, me, cfg)
	if err != nil {
		return err
	}

	// Anything else either player had pending can no longer be accepted.
	s.cancelInvitations(inviter.ID, "in-game")
	s.cancelInvitations(me.ID, "in-game")

	s.announcePresence(inviter, presence.StatusInGame)
	s.announcePresence(me, presence.StatusInGame)

	log.Printf("Invitation %s -> %s accepted, room %s", inviter.ID, me.ID, r.ID)
	return nil
}

func (s *Service) handlePaddleIntent(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	p, err := protocol.DecodePayload[protocol.PaddleIntentPayload](env)
	if err != nil {
		return gameerr.Wrap(gameerr.ErrMalformedPayload, err)
	}
	intent, ok := engine.ParseIntent(p.Direction)
	if !ok {
		return gameerr.ErrInvalidDirection
	}
	_, me := cs.snapshot()
	return s.rooms.SetIntent(me.ID, intent)
}

func (s *Service) handleForfeit(ctx context.Context, cs *connSession, env protocol.Envelope) error {
	_, me := cs.snapshot()

	unlock := s.locks.Lock(me.ID)
	defer unlock()

	_, err := s.rooms.Forfeit(me.ID, room.ReasonForfeited)
	return err
}

// send writes one event straight to a connection
func (s *Service) send(conn presence.Conn, t protocol.EventType, payload any) {
	msg, err := protocol.Encode(t, payload)
	if err != nil {
		log.Printf("Failed to encode %s: %v", t, err)
		return
	}
	if err := conn.Send(msg); err != nil {
		log.Printf("Failed to send %s: %v", t, err)
	}
}
