package store

import (
	"context"
	"errors"
	"time"

	"github.com/tidwall/buntdb"
)

// BuntRevocationStore keeps the token deny-list in an embedded buntdb file
// (or memory). It is the single-instance fallback used when no valkey address
// is configured.
type BuntRevocationStore struct {
	db *buntdb.DB
}

// NewBuntRevocationStore opens the embedded store. Use ":memory:" for a
// non-persistent deny-list.
func NewBuntRevocationStore(path string) (*BuntRevocationStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntRevocationStore{db: db}, nil
}

func (s *BuntRevocationStore) key(token string) string {
	return revokedTokenKeyPrefix + tokenHash(token)
}

// Revoke stores the token hash with a TTL matching the token's remaining
// lifetime. An already-expired token is a no-op.
func (s *BuntRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(s.key(token), "1", &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

// IsRevoked reports whether the token hash is present and unexpired.
func (s *BuntRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool
	err := s.db.View(func(tx *buntdb.Tx) error {
		_, err := tx.Get(s.key(token))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		revoked = true
		return nil
	})
	return revoked, err
}

func (s *BuntRevocationStore) Close() error { return s.db.Close() }
