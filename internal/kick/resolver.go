package kick

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatroomResolver resolves a channel name to its numeric chatroom id.
type ChatroomResolver interface {
	ResolveChatroomID(ctx context.Context, channel string) (int64, error)
}

const resolverKeyPrefix = "kickcast:chatroom:"

// CachedResolver keeps resolved chatroom ids in Redis so session restarts
// skip the Kick API. Cache failures degrade to the inner resolver.
type CachedResolver struct {
	inner ChatroomResolver
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCachedResolver(inner ChatroomResolver, rdb *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, rdb: rdb, ttl: ttl}
}

func (r *CachedResolver) ResolveChatroomID(ctx context.Context, channel string) (int64, error) {
	key := resolverKeyPrefix + channel

	if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
		if id, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			return id, nil
		}
	} else if err != redis.Nil {
		slog.Debug("Chatroom cache read failed", "channel", channel, "error", err)
	}

	id, err := r.inner.ResolveChatroomID(ctx, channel)
	if err != nil {
		return 0, err
	}

	if err := r.rdb.Set(ctx, key, strconv.FormatInt(id, 10), r.ttl).Err(); err != nil {
		slog.Debug("Chatroom cache write failed", "channel", channel, "error", err)
	}
	return id, nil
}
