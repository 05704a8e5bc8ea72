// Package presence keeps per-user online status in Redis. Counters are
// commutative, so concurrent connects/disconnects from several devices or
// several server processes resolve to the right answer.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ksuvorov/livewire/internal/domain"
)

const connKeyPrefix = "presence:conns:"
const seenKeyPrefix = "presence:last_seen:"

type Store struct {
	rdb *redis.Client
}

func New(addr string) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// HandleConnect bumps the user's connection counter.
func (s *Store) HandleConnect(ctx context.Context, userID domain.UserID) error {
	if err := s.rdb.Incr(ctx, connKeyPrefix+string(userID)).Err(); err != nil {
		return fmt.Errorf("presence: connect: %w", err)
	}
	return nil
}

// HandleDisconnect decrements the counter; on the last disconnect the key is
// removed and the last-seen timestamp recorded.
func (s *Store) HandleDisconnect(ctx context.Context, userID domain.UserID) error {
	n, err := s.rdb.Decr(ctx, connKeyPrefix+string(userID)).Result()
	if err != nil {
		return fmt.Errorf("presence: disconnect: %w", err)
	}
	if n <= 0 {
		pipe := s.rdb.TxPipeline()
		pipe.Del(ctx, connKeyPrefix+string(userID))
		pipe.Set(ctx, seenKeyPrefix+string(userID), time.Now().UnixMilli(), 0)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("presence: disconnect cleanup: %w", err)
		}
	}
	return nil
}

func (s *Store) IsUserOnline(ctx context.Context, userID domain.UserID) (bool, error) {
	n, err := s.rdb.Exists(ctx, connKeyPrefix+string(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("presence: online check: %w", err)
	}
	return n > 0, nil
}
