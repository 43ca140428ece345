// Package events publishes domain events to external subscribers.
//
// Subscribers are other processes (leaderboards, analytics, chat) listening
// on NATS subjects. Publishing is fire and forget: a broker outage never
// affects players, it only loses the external notification.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects
const (
	SubjectPresenceChanged    = "pong.presence.changed"
	SubjectFriendshipAccepted = "pong.friendship.accepted"
	SubjectMatchFinished      = "pong.match.finished"
)

// PresenceEvent is published when an identity changes presence status
type PresenceEvent struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// FriendshipEvent is published when a friend request is accepted
type FriendshipEvent struct {
	RequestID string    `json:"requestId"`
	Requester string    `json:"requester"`
	Addressee string    `json:"addressee"`
	At        time.Time `json:"at"`
}

// MatchEvent is published when a room finishes
type MatchEvent struct {
	RoomID  string    `json:"roomId"`
	PlayerA string    `json:"playerA"`
	PlayerB string    `json:"playerB"`
	ScoreA  int       `json:"scoreA"`
	ScoreB  int       `json:"scoreB"`
	Winner  string    `json:"winner"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

// Publisher sends events to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                               { return nil }

// NATSPublisher publishes JSON encoded events on a NATS connection
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to url. The connection reconnects forever once
// established; the initial connect must succeed.
func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish marshals event and hands it to the NATS client buffer
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	return p.nc.Publish(subject, data)
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
