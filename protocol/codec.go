package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrMissingType  = errors.New("message has no type")
)

// Encode wraps payload in an envelope of the given type.
func Encode(t EventType, payload any) ([]byte, error) {
	if t == "" {
		return nil, ErrMissingType
	}

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
		}
		raw = b
	}

	return json.Marshal(Envelope{Type: t, Payload: raw})
}

// DecodeEnvelope parses the outer envelope without touching the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyMessage
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("empty payload for type %q", env.Type)
	}
	err := json.Unmarshal(env.Payload, &out)
	return out, err
}

// EncodeError builds an error event from any error, classifying it first.
func EncodeError(err error) []byte {
	ge := gameerr.From(err)
	b, encErr := Encode(EventError, ErrorPayload{
		Message: ge.Message,
		Code:    ge.Code,
		Kind:    string(ge.Kind),
	})
	if encErr != nil {
		// ErrorPayload only holds strings, so this cannot happen in practice.
		return []byte(`{"type":"error","payload":{"message":"internal server error","code":"internal","kind":"InternalError"}}`)
	}
	return b
}
