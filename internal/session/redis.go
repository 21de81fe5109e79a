package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the set holding confirmed user ids.
const DefaultRedisKey = "vidgate:confirmed"

// Redis shares confirmations between bot instances through one Redis set.
type Redis struct {
	client redis.UniversalClient
	key    string
}

// NewRedis wraps an existing client. An empty key selects DefaultRedisKey.
func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return client, nil
}

func (r *Redis) IsConfirmed(ctx context.Context, userID int64) (bool, error) {
	if err := validUser(userID); err != nil {
		return false, err
	}
	ok, err := r.client.SIsMember(ctx, r.key, strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("session: redis sismember: %w", err)
	}
	return ok, nil
}

func (r *Redis) MarkConfirmed(ctx context.Context, userID int64) error {
	if err := validUser(userID); err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, r.key, strconv.FormatInt(userID, 10)).Err(); err != nil {
		return fmt.Errorf("session: redis sadd: %w", err)
	}
	return nil
}

func (r *Redis) Count(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("session: redis scard: %w", err)
	}
	return int(n), nil
}
