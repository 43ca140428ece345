package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/pongarena/auth"
)

type fakeConn struct {
	name string
}

func (c *fakeConn) Send([]byte) error { return nil }
func (c *fakeConn) Close() error      { return nil }

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	alice := auth.Identity{ID: "alice", Name: "Alice"}
	conn := &fakeConn{name: "a1"}

	if replaced := r.Register(alice, conn); replaced != nil {
		t.Errorf("Expected no replaced connection, got %v", replaced)
	}

	got, ok := r.Resolve("alice")
	if !ok || got != conn {
		t.Fatalf("Expected alice to resolve to her connection")
	}
	identity, ok := r.IdentityOf(conn)
	if !ok || identity != alice {
		t.Errorf("Expected connection to map back to alice, got %+v", identity)
	}
	if r.Status("alice") != StatusOnline {
		t.Errorf("Expected online, got %s", r.Status("alice"))
	}
	if r.Status("bob") != StatusOffline {
		t.Errorf("Expected bob offline, got %s", r.Status("bob"))
	}
}

func TestReconnectReplacesConnection(t *testing.T) {
	r := NewRegistry()
	alice := auth.Identity{ID: "alice", Name: "Alice"}
	first := &fakeConn{name: "first"}
	second := &fakeConn{name: "second"}

	r.Register(alice, first)
	r.SetStatus("alice", StatusInGame)

	replaced := r.Register(alice, second)
	if replaced != first {
		t.Fatalf("Expected first connection to be replaced")
	}
	if r.Count() != 1 {
		t.Errorf("Expected one entry, got %d", r.Count())
	}
	if r.Status("alice") != StatusInGame {
		t.Errorf("Expected in-game status to survive reconnect, got %s", r.Status("alice"))
	}

	// The old handle closing afterwards must not evict the new one.
	if _, ok := r.Unregister(first); ok {
		t.Error("Expected stale unregister to be ignored")
	}
	if conn, ok := r.Resolve("alice"); !ok || conn != second {
		t.Error("Expected alice to still resolve to the second connection")
	}

	entry, ok := r.Unregister(second)
	if !ok || entry.Identity.ID != "alice" {
		t.Fatalf("Expected unregister to return alice's entry, got %+v", entry)
	}
	if r.IsOnline("alice") {
		t.Error("Expected alice offline after unregister")
	}
}

func TestSetStatus(t *testing.T) {
	r := NewRegistry()
	r.Register(auth.Identity{ID: "alice"}, &fakeConn{})

	tests := []struct {
		name   string
		id     string
		status Status
		want   bool
	}{
		{"to in-game", "alice", StatusInGame, true},
		{"unchanged", "alice", StatusInGame, false},
		{"back online", "alice", StatusOnline, true},
		{"offline identity", "bob", StatusInGame, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.SetStatus(tt.id, tt.status); got != tt.want {
				t.Errorf("SetStatus(%s, %s) = %v, want %v", tt.id, tt.status, got, tt.want)
			}
		})
	}
}

func TestOnlineIsSorted(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"carol", "alice", "bob"} {
		r.Register(auth.Identity{ID: id}, &fakeConn{name: id})
	}

	online := r.Online()
	if len(online) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(online))
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if online[i].Identity.ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, online[i].Identity.ID)
		}
	}
}

func TestConcurrentRegistration(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConn{name: fmt.Sprint(i)}
			r.Register(auth.Identity{ID: fmt.Sprintf("player-%d", i)}, conn)
			if i%2 == 0 {
				r.Unregister(conn)
			}
		}(i)
	}
	wg.Wait()

	if r.Count() != 25 {
		t.Errorf("Expected 25 remaining entries, got %d", r.Count())
	}
}
