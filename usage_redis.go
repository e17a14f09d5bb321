package web2pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis hash fields, one hash per user.
const (
	redisFieldUsed      = "conversions_used"
	redisFieldLastReset = "last_reset"
	redisFieldPlan      = "plan_type"
)

// redisKeyPrefix namespaces usage hashes.
const redisKeyPrefix = "web2pdf:usage:"

// RedisStore persists usage records as one redis hash per user. Increments
// go through HINCRBY, which is atomic on the server, so concurrent
// increments for the same user never lose updates.
type RedisStore struct {
	client *redis.Client
}

// Compile-time interface check.
var _ UsageStore = (*RedisStore)(nil)

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping: %v", ErrStorage, err)
	}
	return &RedisStore{client: client}, nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (UsageRecord, error) {
	vals, err := s.client.HGetAll(ctx, redisKey(userID)).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if len(vals) == 0 {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}
	return parseRedisRecord(userID, vals)
}

func (s *RedisStore) Create(ctx context.Context, rec UsageRecord) (UsageRecord, error) {
	key := redisKey(rec.UserID)

	// The plan field doubles as the existence marker; HSETNX keeps creation
	// idempotent under concurrent first requests.
	created, err := s.client.HSetNX(ctx, key, redisFieldPlan, string(rec.Plan)).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !created {
		return s.Get(ctx, rec.UserID)
	}

	err = s.client.HSet(ctx, key,
		redisFieldUsed, strconv.Itoa(rec.ConversionsUsed),
		redisFieldLastReset, rec.LastReset.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return rec, nil
}

func (s *RedisStore) Increment(ctx context.Context, userID string) (UsageRecord, error) {
	key := redisKey(userID)

	exists, err := s.client.HExists(ctx, key, redisFieldPlan).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !exists {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}

	if err := s.client.HIncrBy(ctx, key, redisFieldUsed, 1).Err(); err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.Get(ctx, userID)
}

func (s *RedisStore) Reset(ctx context.Context, userID string, at time.Time) (UsageRecord, error) {
	key := redisKey(userID)

	exists, err := s.client.HExists(ctx, key, redisFieldPlan).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !exists {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}

	err = s.client.HSet(ctx, key,
		redisFieldUsed, "0",
		redisFieldLastReset, at.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.Get(ctx, userID)
}

func (s *RedisStore) SetPlan(ctx context.Context, userID string, plan Plan) (UsageRecord, error) {
	key := redisKey(userID)

	exists, err := s.client.HExists(ctx, key, redisFieldPlan).Result()
	if err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !exists {
		return UsageRecord{}, fmt.Errorf("%w: %s", ErrUsageNotFound, userID)
	}

	if err := s.client.HSet(ctx, key, redisFieldPlan, string(plan)).Err(); err != nil {
		return UsageRecord{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return s.Get(ctx, userID)
}

// parseRedisRecord decodes a usage hash into a record.
func parseRedisRecord(userID string, vals map[string]string) (UsageRecord, error) {
	rec := UsageRecord{UserID: userID, Plan: Plan(vals[redisFieldPlan])}

	if v := vals[redisFieldUsed]; v != "" {
		used, err := strconv.Atoi(v)
		if err != nil {
			return UsageRecord{}, fmt.Errorf("%w: parsing %s: %v", ErrStorage, redisFieldUsed, err)
		}
		rec.ConversionsUsed = used
	}
	if v := vals[redisFieldLastReset]; v != "" {
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return UsageRecord{}, fmt.Errorf("%w: parsing %s: %v", ErrStorage, redisFieldLastReset, err)
		}
		rec.LastReset = ts
	}
	return rec, nil
}
