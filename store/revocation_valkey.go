package store

import (
	"context"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

const revokedTokenKeyPrefix = "revoke:tokens:"

// ValkeyRevocationStore keeps the token deny-list in Valkey (Redis-compatible)
// so revocations take effect immediately across every instance.
type ValkeyRevocationStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyRevocationStore connects to valkey at addr. prefix namespaces keys;
// it defaults to "crewdesk:".
func NewValkeyRevocationStore(addr string, prefix string) (*ValkeyRevocationStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	if prefix == "" {
		prefix = "crewdesk:"
	}
	return &ValkeyRevocationStore{client: cli, prefix: prefix}, nil
}

func (s *ValkeyRevocationStore) key(token string) string {
	return s.prefix + revokedTokenKeyPrefix + tokenHash(token)
}

// Revoke stores the token hash with a TTL matching the token's remaining
// lifetime. An already-expired token is a no-op.
func (s *ValkeyRevocationStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Do(ctx, s.client.B().Set().Key(s.key(token)).Value("1").Ex(ttl).Build()).Error()
}

// IsRevoked reports whether the token hash is present.
func (s *ValkeyRevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(s.key(token)).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping verifies connectivity.
func (s *ValkeyRevocationStore) Ping(ctx context.Context) error {
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

func (s *ValkeyRevocationStore) Close() error {
	s.client.Close()
	return nil
}
