package store

import (
	"context"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
)

func TestPairKeyUnordered(t *testing.T) {
	if PairKey(3, 9) != PairKey(9, 3) {
		t.Errorf("pair key must not depend on order: %q vs %q", PairKey(3, 9), PairKey(9, 3))
	}
	if PairKey(3, 9) != "3:9" {
		t.Errorf("unexpected pair key %q", PairKey(3, 9))
	}
}

func TestGetOrCreateChatIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	itemID := int64(5)

	first, created, err := GetOrCreateChat(ctx, database, 1, 2, "Ana", "Bor", &itemID)
	if err != nil {
		t.Fatalf("GetOrCreateChat: %v", err)
	}
	if !created {
		t.Error("expected first call to create the chat")
	}

	second, created, err := GetOrCreateChat(ctx, database, 2, 1, "Bor renamed", "Ana renamed", nil)
	if err != nil {
		t.Fatalf("GetOrCreateChat: %v", err)
	}
	if created {
		t.Error("expected second call to reuse the chat")
	}
	if second.ID != first.ID {
		t.Errorf("expected same chat id, got %d and %d", first.ID, second.ID)
	}
	if second.User1Name != "Ana" || second.User2Name != "Bor" {
		t.Errorf("names must not be re-synced, got %q/%q", second.User1Name, second.User2Name)
	}
	if second.ItemID == nil || *second.ItemID != 5 {
		t.Errorf("expected original item id, got %v", second.ItemID)
	}

	n, _ := CountChats(ctx, database)
	if n != 1 {
		t.Errorf("expected 1 chat, got %d", n)
	}
}

func TestListChatsAndMessages(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c1, _, _ := GetOrCreateChat(ctx, database, 1, 2, "Ana", "Bor", nil)
	GetOrCreateChat(ctx, database, 3, 1, "Cene", "Ana", nil)
	GetOrCreateChat(ctx, database, 3, 2, "Cene", "Bor", nil)

	chats, err := ListChats(ctx, database, 1)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(chats) != 2 {
		t.Errorf("expected 2 chats for user 1, got %d", len(chats))
	}

	CreateMessage(ctx, database, c1.ID, 1, "hello")
	CreateMessage(ctx, database, c1.ID, 2, "hi")
	CreateMessage(ctx, database, c1.ID, 1, "is this your wallet?")

	msgs, err := ListMessages(ctx, database, c1.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].ID < msgs[i-1].ID {
			t.Error("expected messages in creation order")
		}
	}
	if msgs[2].Message != "is this your wallet?" {
		t.Errorf("unexpected last message %q", msgs[2].Message)
	}
}
