package auth

import (
	"context"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// Authenticator turns a bearer token into claims. It is shared by the HTTP
// middleware and the live-event gateway.
type Authenticator struct {
	Secret string
	DB     store.Querier
}

// Authenticate validates the token signature and expiry and rejects revoked
// tokens. Every failure wraps model.ErrUnauthenticated.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", model.ErrUnauthenticated)
	}

	claims, err := ValidateToken(a.Secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnauthenticated, err)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: token has no user", model.ErrUnauthenticated)
	}

	if claims.ID != "" && a.DB != nil {
		revoked, err := store.IsTokenRevoked(ctx, a.DB, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("checking token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", model.ErrUnauthenticated)
		}
	}

	return claims, nil
}
