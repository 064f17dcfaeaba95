package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RevocationStore is a deny-list consulted after signature verification: a hit
// means the credential was revoked before its natural expiry.
type RevocationStore interface {
	// Revoke marks a raw bearer token revoked until its expiry.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	// IsRevoked reports whether the raw token is on the deny-list.
	IsRevoked(ctx context.Context, token string) (bool, error)
	Close() error
}

// tokenHash returns a stable hex sha256 for a token string; raw credentials
// are never stored.
func tokenHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
