package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func openFileDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "najdeno.sqlite3"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return database
}

func TestWithTxWaitsForConcurrentWriter(t *testing.T) {
	database := openFileDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "ana@example.com", "Ana", "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	item, err := CreateItem(ctx, database, user.ID, model.ItemInput{Status: model.ItemStatusLost, Name: "Wallet"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	writerDone := make(chan error, 1)
	err = WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := GetItem(ctx, tx, item.ID); err != nil {
			return err
		}

		// Another pool connection writes while this transaction is open.
		go func() {
			_, err := CreateNotification(ctx, database, model.NewNotification{UserID: user.ID, Message: "hello"})
			writerDone <- err
		}()
		time.Sleep(100 * time.Millisecond)

		return SetItemApproved(ctx, tx, item.ID, true)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	select {
	case err := <-writerDone:
		if err != nil {
			t.Fatalf("concurrent CreateNotification: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent writer never finished")
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !got.Approved {
		t.Error("expected item to be approved")
	}
	notes, err := ListNotifications(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notes) != 1 {
		t.Errorf("expected 1 notification, got %d", len(notes))
	}
}
