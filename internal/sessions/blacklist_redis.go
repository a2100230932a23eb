package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:access:"

// Blacklist revokes access tokens before their natural expiry (logout).
// Entries are keyed by token id and expire together with the token.
// A Blacklist without a Redis client is a no-op.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(c *redis.Client) *Blacklist {
	return &Blacklist{client: c}
}

func (b *Blacklist) Enabled() bool {
	return b != nil && b.client != nil
}

// Revoke stores the token id until ttl elapses. Non-positive ttl means the token is already dead.
func (b *Blacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !b.Enabled() || tokenID == "" || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked returns true when the token id is on the blacklist.
func (b *Blacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if !b.Enabled() || tokenID == "" {
		return false, nil
	}
	exists, err := b.client.Exists(ctx, blacklistPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
