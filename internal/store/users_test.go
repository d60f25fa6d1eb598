package store

import (
	"context"
	"testing"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "ana@campus.test", "Ana", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Name != "Ana" {
		t.Errorf("expected name 'Ana', got %q", user.Name)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "ana@campus.test" {
		t.Errorf("expected email 'ana@campus.test', got %q", got.Email)
	}
}

func TestGetUserByEmail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice@campus.test", "Alice", "hash", model.RoleAdmin)

	user, err := GetUserByEmail(ctx, database, "alice@campus.test")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Name != "Alice" {
		t.Errorf("expected 'Alice', got %q", user.Name)
	}

	missing, err := GetUserByEmail(ctx, database, "bob@campus.test")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "dup@campus.test", "One", "hash", model.RoleUser); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}
	if _, err := CreateUser(ctx, database, "dup@campus.test", "Two", "hash", model.RoleUser); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestUserDisplayNameFallback(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, database, "eva@campus.test", "Eva", "hash", model.RoleUser)

	name, err := UserDisplayName(ctx, database, u.ID)
	if err != nil {
		t.Fatalf("UserDisplayName: %v", err)
	}
	if name != "Eva" {
		t.Errorf("expected 'Eva', got %q", name)
	}

	name, _ = UserDisplayName(ctx, database, 999)
	if name != "User 999" {
		t.Errorf("expected placeholder name, got %q", name)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u, _ := CreateUser(ctx, database, "pw@campus.test", "Pw", "old", model.RoleUser)
	if err := UpdateUserPassword(ctx, database, u.ID, "new"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}

	got, _ := GetUser(ctx, database, u.ID)
	if got.PasswordHash != "new" {
		t.Errorf("expected updated hash, got %q", got.PasswordHash)
	}
}
