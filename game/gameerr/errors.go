// Package gameerr defines the error taxonomy reported to players.
//
// Every failure a client can trigger carries a Kind and a stable Code. Kinds
// decide how the connection reacts: AuthError closes it, every other kind is
// reported as an error event and the connection stays open.
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation.
type Kind string

const (
	KindAuth       Kind = "AuthError"
	KindValidation Kind = "ValidationError"
	KindConflict   Kind = "ConflictError"
	KindNotFound   Kind = "NotFoundError"
	KindState      Kind = "StateError"
	KindInternal   Kind = "InternalError"
)

// Error is a classified, client-visible failure.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code, or a bare Kind sentinel by kind.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case *Error:
		if t.Code == "" {
			return t.Kind == e.Kind
		}
		return t.Code == e.Code
	case kindSentinel:
		return Kind(t) == e.Kind
	}
	return false
}

type kindSentinel Kind

func (k kindSentinel) Error() string { return string(k) }

// Kind sentinels for errors.Is checks.
var (
	ErrAuth       error = kindSentinel(KindAuth)
	ErrValidation error = kindSentinel(KindValidation)
	ErrConflict   error = kindSentinel(KindConflict)
	ErrNotFound   error = kindSentinel(KindNotFound)
	ErrState      error = kindSentinel(KindState)
)

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause to a classified error without changing its code.
func Wrap(e *Error, cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// From extracts the classified error from err. Unclassified errors become
// an internal error so the client still gets a structured reply.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal server error", Err: err}
}

// IsAuth reports whether err must close the connection.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}

// Authentication
var (
	ErrInvalidToken     = New(KindAuth, "invalid_token", "credential is malformed or has a bad signature")
	ErrTokenExpired     = New(KindAuth, "token_expired", "credential has expired")
	ErrMissingToken     = New(KindAuth, "missing_token", "credential is required")
	ErrUnknownIdentity  = New(KindAuth, "unknown_identity", "credential subject is not a known user")
	ErrNotAuthenticated = New(KindAuth, "not_authenticated", "authenticate must be the first message")
)

// Validation
var (
	ErrMalformedPayload = New(KindValidation, "malformed_payload", "message could not be decoded")
	ErrUnknownEvent     = New(KindValidation, "unknown_event", "event type is not supported")
	ErrSelfRequest      = New(KindValidation, "self_request", "cannot send a friend request to yourself")
	ErrSelfInvite       = New(KindValidation, "self_invite", "cannot invite yourself to a game")
	ErrInvalidDirection = New(KindValidation, "invalid_direction", "direction must be up, down or idle")
	ErrMissingTarget    = New(KindValidation, "missing_target", "target identity is required")
	ErrUnknownConfig    = New(KindValidation, "unknown_config", "game configuration does not exist")
)

// Conflict
var (
	ErrAlreadyExists     = New(KindConflict, "already_exists", "a friendship or pending request already exists")
	ErrNotFriends        = New(KindConflict, "not_friends", "game invitations require an accepted friendship")
	ErrStaleInvitation   = New(KindConflict, "stale_invitation", "a participant is no longer online")
	ErrInvitationPending = New(KindConflict, "invitation_pending", "an invitation to this player is already pending")
)

// Not found
var (
	ErrRequestNotFound    = New(KindNotFound, "request_not_found", "no pending friend request matches")
	ErrInvitationNotFound = New(KindNotFound, "invitation_not_found", "no pending game invitation matches")
)

// State
var (
	ErrRecipientOffline     = New(KindState, "recipient_offline", "recipient is not online")
	ErrAlreadyInGame        = New(KindState, "already_in_game", "player is already in a game")
	ErrNotInGame            = New(KindState, "not_in_game", "player is not in a game")
	ErrAlreadyAuthenticated = New(KindState, "already_authenticated", "connection is already authenticated")
)
