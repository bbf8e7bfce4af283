package rotationstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/pkg/envutil"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// redisStore holds the hot copy of rotation state. Writes are
// last-write-wins JSON documents with a TTL; the Postgres trace row
// outlives expiry for the read API.
type redisStore struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedis(rdb *goredis.Client, log *logger.Logger) analysis.StateStore {
	return &redisStore{
		rdb: rdb,
		ttl: time.Duration(envutil.Int("ROTATION_STATE_TTL_HOURS", 24*7)) * time.Hour,
		log: log.With("store", "RotationRedis"),
	}
}

// NewRedisClient builds the go-redis client from env.
func NewRedisClient() (*goredis.Client, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", ""),
		DB:          envutil.Int("REDIS_DB", 0),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func rotationKey(lectureID uuid.UUID) string {
	return "rotation:" + lectureID.String()
}

func (s *redisStore) Read(ctx context.Context, lectureID uuid.UUID) (*analysis.RotationState, error) {
	raw, err := s.rdb.Get(ctx, rotationKey(lectureID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get rotation state: %w", err)
	}
	var st analysis.RotationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode rotation state: %w", err)
	}
	return &st, nil
}

func (s *redisStore) Write(ctx context.Context, lectureID uuid.UUID, state *analysis.RotationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode rotation state: %w", err)
	}
	if err := s.rdb.Set(ctx, rotationKey(lectureID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rotation state: %w", err)
	}
	return nil
}
