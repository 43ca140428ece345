// Package protocol defines the wire events exchanged over the player websocket.
//
// Every frame is a JSON Envelope whose Type names the event and whose Payload
// holds the event body. Client events flow into the service's typed dispatch,
// server events are produced by the service, rooms and the broadcast
// dispatcher.
package protocol

import (
	"encoding/json"

	"github.com/wricardo/mcp-training/pongarena/game/engine"
)

// EventType names a wire event.
type EventType string

// Client to server events
const (
	EventAuthenticate           EventType = "authenticate"
	EventFriendRequest          EventType = "friend-request"
	EventFriendRequestResponse  EventType = "friend-request-response"
	EventGameInvitation         EventType = "game-invitation"
	EventGameInvitationResponse EventType = "game-invitation-response"
	EventPaddleIntent           EventType = "paddle-intent"
	EventForfeit                EventType = "forfeit"
)

// Server to client events
const (
	EventAuthenticated           EventType = "authenticated"
	EventPresenceChanged         EventType = "presence-changed"
	EventFriendRequestSent       EventType = "friend-request-sent"
	EventFriendRequestReceived   EventType = "friend-request-received"
	EventFriendRequestAccepted   EventType = "friend-request-accepted"
	EventFriendRequestDeclined   EventType = "friend-request-declined"
	EventGameInvitationSent      EventType = "game-invitation-sent"
	EventGameInvitationReceived  EventType = "game-invitation-received"
	EventGameInvitationDeclined  EventType = "game-invitation-declined"
	EventGameInvitationCancelled EventType = "game-invitation-cancelled"
	EventGameStarted             EventType = "game-started"
	EventFrameUpdate             EventType = "frame-update"
	EventMatchFinished           EventType = "match-finished"
	EventError                   EventType = "error"
)

// Envelope wraps every message on the wire
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Identity is the public view of a player
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Client payloads

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type FriendRequestPayload struct {
	To string `json:"to"`
}

type FriendRequestResponsePayload struct {
	RequestID string `json:"requestId"`
	Accept    bool   `json:"accept"`
}

type GameInvitationPayload struct {
	To     string `json:"to"`
	Config string `json:"config,omitempty"`
}

type GameInvitationResponsePayload struct {
	From   string `json:"from"`
	Accept bool   `json:"accept"`
}

type PaddleIntentPayload struct {
	Direction string `json:"direction"`
}

// Server payloads

// FriendStatus is a friend and their current presence
type FriendStatus struct {
	Identity Identity `json:"identity"`
	Status   string   `json:"status"`
}

// PendingRequest is a friend request waiting for the receiver's answer
type PendingRequest struct {
	RequestID string   `json:"requestId"`
	From      Identity `json:"from"`
}

// PendingInvitation is a game invitation still waiting for an answer
type PendingInvitation struct {
	From   Identity `json:"from"`
	To     string   `json:"to"`
	Config string   `json:"config,omitempty"`
}

type AuthenticatedPayload struct {
	Identity    Identity            `json:"identity"`
	Friends     []FriendStatus      `json:"friends"`
	Pending     []PendingRequest    `json:"pending"`
	Invitations []PendingInvitation `json:"invitations"`
}

type PresenceChangedPayload struct {
	Identity Identity `json:"identity"`
	Status   string   `json:"status"`
}

type FriendRequestSentPayload struct {
	RequestID string `json:"requestId"`
	To        string `json:"to"`
}

type FriendRequestReceivedPayload struct {
	RequestID string   `json:"requestId"`
	From      Identity `json:"from"`
}

type FriendRequestAcceptedPayload struct {
	RequestID string   `json:"requestId"`
	Friend    Identity `json:"friend"`
}

type FriendRequestDeclinedPayload struct {
	RequestID string `json:"requestId"`
	From      string `json:"from"`
}

type GameInvitationSentPayload struct {
	To string `json:"to"`
}

type GameInvitationReceivedPayload struct {
	From   Identity `json:"from"`
	Config string   `json:"config,omitempty"`
}

type GameInvitationDeclinedPayload struct {
	By string `json:"by"`
}

type GameInvitationCancelledPayload struct {
	From   string `json:"from"`
	Reason string `json:"reason"`
}

type GameStartedPayload struct {
	RoomID  string   `json:"roomId"`
	PlayerA Identity `json:"playerA"`
	PlayerB Identity `json:"playerB"`
	Config  string   `json:"config"`
}

// FrameUpdatePayload is the per-tick delta of a match
type FrameUpdatePayload struct {
	RoomID string `json:"roomId"`
	engine.Frame
}

type MatchFinishedPayload struct {
	RoomID string `json:"roomId"`
	Winner string `json:"winner"`
	ScoreA int    `json:"scoreA"`
	ScoreB int    `json:"scoreB"`
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Kind    string `json:"kind"`
}
