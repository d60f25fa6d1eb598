package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const jwtSecretKey = "jwt_secret"

// Setting returns the stored value for key and whether it exists.
func Setting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// GetJWTSecret returns the signing secret, generating one on first use.
// Concurrent first calls converge on whichever insert landed.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	if secret, ok, err := Setting(ctx, q, jwtSecretKey); err != nil || ok {
		return secret, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, hex.EncodeToString(buf),
	); err != nil {
		return "", fmt.Errorf("storing jwt secret: %w", err)
	}

	secret, _, err := Setting(ctx, q, jwtSecretKey)
	return secret, err
}

// RevokeToken puts a token id on the deny list until it would have expired
// anyway. Entries past their expiry are purged on the way.
func RevokeToken(ctx context.Context, q Querier, jti string, expiresAt time.Time) error {
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		jti, expiresAt,
	); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	_, err := PurgeRevokedTokens(ctx, q, time.Now())
	return err
}

// PurgeRevokedTokens drops deny-list entries that expired before now.
func PurgeRevokedTokens(ctx context.Context, q Querier, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purging revoked tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// IsTokenRevoked reports whether jti is on the deny list.
func IsTokenRevoked(ctx context.Context, q Querier, jti string) (bool, error) {
	var revoked bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return revoked, nil
}
