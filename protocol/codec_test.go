package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/wricardo/mcp-training/pongarena/game/engine"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

func TestEncodeDecode(t *testing.T) {
	b, err := Encode(EventFriendRequest, FriendRequestPayload{To: "bob"})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Type != EventFriendRequest {
		t.Errorf("Expected type %s, got %s", EventFriendRequest, env.Type)
	}

	p, err := DecodePayload[FriendRequestPayload](env)
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if p.To != "bob" {
		t.Errorf("Expected to=bob, got %q", p.To)
	}
}

func TestDecodeEnvelopeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyMessage},
		{"no type", `{"payload":{}}`, ErrMissingType},
		{"not json", `hello`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(tt.input))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	_, err := DecodePayload[AuthenticatePayload](Envelope{Type: EventAuthenticate})
	if err == nil {
		t.Error("Expected error for empty payload")
	}
}

func TestEncodeWithoutPayload(t *testing.T) {
	b, err := Encode(EventForfeit, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(b) != `{"type":"forfeit"}` {
		t.Errorf("Unexpected encoding %s", b)
	}
}

func TestFrameUpdateIsFlat(t *testing.T) {
	b, err := Encode(EventFrameUpdate, FrameUpdatePayload{
		RoomID: "room-1",
		Frame: engine.Frame{
			Tick:   12,
			Ball:   engine.Point{X: 1, Y: 2},
			ScoreA: 3,
		},
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var msg struct {
		Payload map[string]json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"roomId", "tick", "ball", "paddleA", "paddleB", "scoreA", "scoreB"} {
		if _, ok := msg.Payload[key]; !ok {
			t.Errorf("Expected key %q in frame payload", key)
		}
	}
}

func TestEncodeError(t *testing.T) {
	env, err := DecodeEnvelope(EncodeError(gameerr.ErrNotFriends))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if env.Type != EventError {
		t.Fatalf("Expected error event, got %s", env.Type)
	}

	p, _ := DecodePayload[ErrorPayload](env)
	if p.Code != "not_friends" || p.Kind != "ConflictError" {
		t.Errorf("Unexpected error payload %+v", p)
	}

	env, _ = DecodeEnvelope(EncodeError(errors.New("boom")))
	p, _ = DecodePayload[ErrorPayload](env)
	if p.Code != "internal" {
		t.Errorf("Expected internal code, got %q", p.Code)
	}
}
