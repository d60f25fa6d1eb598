package main

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

func TestGeneratePassword(t *testing.T) {
	p, err := generatePassword(16)
	if err != nil {
		t.Fatalf("generatePassword: %v", err)
	}
	if len(p) != 16 {
		t.Errorf("expected 16 characters, got %d", len(p))
	}
	if strings.ContainsAny(p, " \t\n") {
		t.Errorf("unexpected whitespace in %q", p)
	}
}

func TestEnsureAdminRunsOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := ensureAdmin(ctx, database, "admin@campus.test", "Admin"); err != nil {
		t.Fatalf("ensureAdmin: %v", err)
	}
	if err := ensureAdmin(ctx, database, "other@campus.test", "Other"); err != nil {
		t.Fatalf("second ensureAdmin: %v", err)
	}

	n, err := store.CountUsers(ctx, database)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}

	admin, err := store.GetUserByEmail(ctx, database, "admin@campus.test")
	if err != nil || admin == nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("")) == nil {
		t.Error("expected a real password hash")
	}
}
