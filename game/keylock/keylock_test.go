package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("alice")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Expected counter 50, got %d", counter)
	}
	if l.Len() != 0 {
		t.Errorf("Expected all entries released, %d left", l.Len())
	}
}

func TestLockDifferentKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockA := l.Lock("alice")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("bob")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Lock on a different key blocked")
	}
}

func TestLockOverlappingSetsNoDeadlock(t *testing.T) {
	l := New()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := l.Lock("alice", "bob")
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock := l.Lock("bob", "alice")
			unlock()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Deadlock locking overlapping key sets")
	}
}

func TestLockDuplicateKeys(t *testing.T) {
	l := New()
	unlock := l.Lock("alice", "alice")
	unlock()

	if l.Len() != 0 {
		t.Errorf("Expected no tracked keys, got %d", l.Len())
	}
}
