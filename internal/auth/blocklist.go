package auth

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

const blocklistPrefix = "blocklist:"

var blocklist *redis.Client

// InitBlocklist connects the token revocation blocklist. Revocation is
// disabled when REDIS_ADDR is not set.
func InitBlocklist() {
	addr := os.Getenv("REDIS_ADDR")

	if addr == "" {
		log.Println("REDIS_ADDR not set, token revocation disabled")
		return
	}

	blocklist = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
}

// RevokeToken blocks the token id until the token would expire anyway.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if blocklist == nil || jti == "" || ttl <= 0 {
		return nil
	}

	return blocklist.Set(ctx, blocklistPrefix+jti, "revoked", ttl).Err()
}

func IsTokenRevoked(ctx context.Context, jti string) bool {
	if blocklist == nil || jti == "" {
		return false
	}

	count, err := blocklist.Exists(ctx, blocklistPrefix+jti).Result()

	if err != nil {
		log.Printf("Failed to check token blocklist: %v", err)
		return false
	}

	return count > 0
}
