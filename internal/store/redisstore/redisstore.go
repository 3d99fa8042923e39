package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func tutorRateKey(userID uint64, window time.Time) string {
	return fmt.Sprintf("tutor:rate:%d:%d", userID, window.Unix())
}

// AllowTutorRequest counts a request in the user's current one-minute window
// and reports whether it is within limit.
func (s *Store) AllowTutorRequest(ctx context.Context, userID uint64, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	key := tutorRateKey(userID, time.Now().Truncate(time.Minute))

	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, 2*time.Minute)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}
