package realtime

import (
	"sync"
	"testing"
)

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	first := newConn(nil, 1)
	second := newConn(nil, 1)

	if prev := r.Register(1, first); prev != nil {
		t.Errorf("expected no previous connection, got %v", prev.ID)
	}
	if prev := r.Register(1, second); prev != first {
		t.Error("expected first connection to be replaced")
	}

	got, ok := r.Lookup(1)
	if !ok || got != second {
		t.Fatal("expected lookup to return the newest connection")
	}

	// Late disconnect of the replaced connection keeps the newer one.
	if r.Unregister(1, first) {
		t.Error("expected stale unregister to be a no-op")
	}
	if _, ok := r.Lookup(1); !ok {
		t.Fatal("newer registration was removed")
	}

	if !r.Unregister(1, second) {
		t.Error("expected unregister to remove current connection")
	}
	if _, ok := r.Lookup(1); ok {
		t.Error("expected user to be offline")
	}
	if r.Unregister(1, second) {
		t.Error("expected unregister of absent user to be a no-op")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c := newConn(nil, id)
			r.Register(id, c)
			r.Lookup(id)
			if id%2 == 0 {
				r.Unregister(id, c)
			}
		}(int64(i))
	}
	wg.Wait()

	if got := r.Count(); got != 25 {
		t.Errorf("expected 25 connected users, got %d", got)
	}
}
