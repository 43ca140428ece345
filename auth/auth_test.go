package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wricardo/mcp-training/pongarena/game/gameerr"
)

var testSecret = []byte("test-secret")

func TestValidate(t *testing.T) {
	issuer := NewIssuer(testSecret)
	valid, err := issuer.Issue(Identity{ID: "alice", Name: "Alice"}, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	expired, _ := issuer.Issue(Identity{ID: "alice", Name: "Alice"}, -time.Minute)
	otherSecret, _ := NewIssuer([]byte("other")).Issue(Identity{ID: "alice"}, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}).SignedString(testSecret)
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantID  string
	}{
		{"valid", valid, nil, "alice"},
		{"bearer prefix", "Bearer " + valid, nil, "alice"},
		{"empty", "", gameerr.ErrMissingToken, ""},
		{"garbage", "not-a-token", gameerr.ErrInvalidToken, ""},
		{"expired", expired, gameerr.ErrTokenExpired, ""},
		{"wrong secret", otherSecret, gameerr.ErrInvalidToken, ""},
		{"missing expiry", noExpiry, gameerr.ErrInvalidToken, ""},
		{"none algorithm", noneAlg, gameerr.ErrInvalidToken, ""},
	}

	v, err := NewValidator(testSecret, nil)
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Validate(context.Background(), tt.token)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if !gameerr.IsAuth(err) {
					t.Errorf("Expected an auth error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if identity.ID != tt.wantID || identity.Name != "Alice" {
				t.Errorf("Unexpected identity %+v", identity)
			}
		})
	}
}

func TestNewValidatorRequiresSecret(t *testing.T) {
	if _, err := NewValidator(nil, nil); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestValidateUnknownIdentity(t *testing.T) {
	dir := NewFileDirectory([]Identity{{ID: "bob", Name: "Bob"}})
	v, _ := NewValidator(testSecret, dir)
	issuer := NewIssuer(testSecret)

	token, _ := issuer.Issue(Identity{ID: "mallory", Name: "Mallory"}, time.Hour)
	if _, err := v.Validate(context.Background(), token); !errors.Is(err, gameerr.ErrUnknownIdentity) {
		t.Errorf("Expected unknown identity, got %v", err)
	}

	token, _ = issuer.Issue(Identity{ID: "bob", Name: "Not Bob"}, time.Hour)
	identity, err := v.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if identity.Name != "Bob" {
		t.Errorf("Expected directory name to win, got %q", identity.Name)
	}
}

func TestLoadFileDirectory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "users.json", `{"users":[{"id":"alice","name":"Alice"},{"id":"bob"}]}`},
		{"yaml", "users.yaml", "users:\n  - id: alice\n    name: Alice\n  - id: bob\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write users file: %v", err)
			}

			d, err := LoadFileDirectory(path)
			if err != nil {
				t.Fatalf("LoadFileDirectory failed: %v", err)
			}
			if d.Len() != 2 {
				t.Errorf("Expected 2 users, got %d", d.Len())
			}

			bob, err := d.Lookup(context.Background(), "bob", "")
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if bob.Name != "bob" {
				t.Errorf("Expected name to default to id, got %q", bob.Name)
			}
		})
	}

	if _, err := LoadFileDirectory(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
