package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "session:revoked:"

// RevocationList remembers signed-out session token ids until they would have expired anyway
type RevocationList struct {
	client *Client
	now    func() time.Time
}

// NewRevocationList creates a new revocation list
func NewRevocationList(client *Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// Revoke marks a token id as revoked until the given time.
// Tokens already past their expiry are ignored.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}

	ttl := until.Sub(l.now())
	if ttl <= 0 {
		return nil
	}

	if err := l.client.rdb.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been revoked
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	err := l.client.rdb.Get(ctx, revokedPrefix+tokenID).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
}
