package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, env(nil), io.Discard)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Database != want.Database || cfg.Addr != want.Addr || cfg.MessageBurst != want.MessageBurst {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("expected no CORS origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "najdeno.yaml")
	file := `
database: /var/lib/najdeno/db.sqlite3
addr: ":9000"
admin_email: lost@campus.test
cors_origins: ["http://localhost:5173"]
message_burst: 10
shutdown_timeout: 15s
`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(
		[]string{"-c", path, "--addr", ":7000"},
		env(map[string]string{
			"NAJDENO_ADDR":          ":8000",
			"NAJDENO_MESSAGE_BURST": "3",
			"NAJDENO_ADMIN_NAME":    "Front Desk",
		}),
		io.Discard,
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database != "/var/lib/najdeno/db.sqlite3" {
		t.Errorf("file value lost: %q", cfg.Database)
	}
	if cfg.AdminEmail != "lost@campus.test" {
		t.Errorf("file value lost: %q", cfg.AdminEmail)
	}
	if cfg.MessageBurst != 3 {
		t.Errorf("env should override file: got %d", cfg.MessageBurst)
	}
	if cfg.AdminName != "Front Desk" {
		t.Errorf("env value lost: %q", cfg.AdminName)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("flag should override env: got %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected 15s, got %v", cfg.ShutdownTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9100\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(nil, env(map[string]string{
		"NAJDENO_CONFIG":       path,
		"NAJDENO_CORS_ORIGINS": "http://a.test, http://b.test",
	}), io.Discard)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Errorf("expected addr from file, got %q", cfg.Addr)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	badFile := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(badFile, []byte("unknown_key: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"unknown flag", []string{"--nope"}, nil, "unknown flag"},
		{"extra argument", []string{"serve"}, nil, "unexpected argument"},
		{"missing file", []string{"-c", "/does/not/exist.yaml"}, nil, "reading config file"},
		{"unknown key", []string{"-c", badFile}, nil, "parsing config file"},
		{"bad env", nil, map[string]string{"NAJDENO_MESSAGE_RATE": "fast"}, "MESSAGE_RATE"},
		{"invalid burst", []string{"--message-burst", "0"}, nil, "message burst"},
		{"invalid email", []string{"-e", "admin"}, nil, "admin email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, env(tt.env), io.Discard)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadHelp(t *testing.T) {
	var out strings.Builder
	_, err := Load([]string{"-h"}, env(nil), &out)
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("expected ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "--admin-email") {
		t.Errorf("expected usage text, got %q", out.String())
	}
}
