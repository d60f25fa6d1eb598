package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

type pushed struct {
	userID  int64
	event   string
	payload any
}

type fakePusher struct {
	mu     sync.Mutex
	online map[int64]bool
	events []pushed
}

func (p *fakePusher) Push(userID int64, event string, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.online[userID] {
		return false
	}
	p.events = append(p.events, pushed{userID, event, payload})
	return true
}

func newTestService(t *testing.T) (*Service, *fakePusher, int64, int64) {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, err := store.CreateUser(ctx, database, "alice@campus.test", "Alice", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	bob, err := store.CreateUser(ctx, database, "bob@campus.test", "Bob", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	p := &fakePusher{online: map[int64]bool{alice.ID: true}}
	return NewService(database, p, nil), p, alice.ID, bob.ID
}

func TestNotifyPushesToOnlineUser(t *testing.T) {
	svc, p, alice, bob := newTestService(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, model.NewNotification{UserID: alice, Message: "hello"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n.Read {
		t.Error("expected new notification to be unread")
	}

	// Offline recipient: stored, not pushed, no error.
	if _, err := svc.Notify(ctx, model.NewNotification{UserID: bob, Message: "hello"}); err != nil {
		t.Fatalf("Notify offline: %v", err)
	}

	if len(p.events) != 1 {
		t.Fatalf("expected 1 push, got %d", len(p.events))
	}
	if p.events[0].userID != alice || p.events[0].event != EventNotification {
		t.Errorf("unexpected push %+v", p.events[0])
	}
	if got, ok := p.events[0].payload.(*model.Notification); !ok || got.ID != n.ID {
		t.Errorf("expected pushed notification %d, got %#v", n.ID, p.events[0].payload)
	}

	list, err := svc.ListForUser(ctx, bob)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected offline notification to persist, got %d", len(list))
	}

	if _, err := svc.Notify(ctx, model.NewNotification{UserID: bob}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("empty message: expected ErrValidation, got %v", err)
	}
}

func TestListForUserOrder(t *testing.T) {
	svc, _, alice, _ := newTestService(t)
	ctx := context.Background()

	for _, msg := range []string{"first", "second", "third"} {
		if _, err := svc.Notify(ctx, model.NewNotification{UserID: alice, Message: msg}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	list, err := svc.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 3 || list[0].Message != "first" || list[2].Message != "third" {
		t.Errorf("unexpected order: %+v", list)
	}
}

func TestMarkRead(t *testing.T) {
	svc, _, alice, bob := newTestService(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, model.NewNotification{UserID: alice, Message: "hello"})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if _, err := svc.MarkRead(ctx, n.ID, bob); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.MarkRead(ctx, 999, alice); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := svc.MarkRead(ctx, n.ID, alice)
		if err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
		if !got.Read {
			t.Error("expected notification to be read")
		}
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, _, alice, bob := newTestService(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		n, err := svc.Notify(ctx, model.NewNotification{UserID: alice, Message: "hello"})
		if err != nil {
			t.Fatalf("Notify: %v", err)
		}
		ids = append(ids, n.ID)
	}
	if _, err := svc.Notify(ctx, model.NewNotification{UserID: bob, Message: "hello"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	for _, id := range ids[:2] {
		if _, err := svc.MarkRead(ctx, id, alice); err != nil {
			t.Fatalf("MarkRead: %v", err)
		}
	}

	count, err := svc.MarkAllRead(ctx, alice)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 marked, got %d", count)
	}

	count, err = svc.MarkAllRead(ctx, alice)
	if err != nil {
		t.Fatalf("MarkAllRead again: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 on second call, got %d", count)
	}

	list, _ := svc.ListForUser(ctx, bob)
	if len(list) != 1 || list[0].Read {
		t.Error("expected other user's notification untouched")
	}
}
