// Package lock implements the distributed advisory seat lock over Redis.
// Locks are TTL-bound exclusivity hints for seat selection UX: holding one
// does not guarantee a successful booking commit, and its absence does not
// imply a seat is available.  The database transaction is always
// authoritative; this package must never be relied on for correctness.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long an abandoned selection keeps a seat hinted as
// taken before Redis reclaims it.
const DefaultTTL = 300 * time.Second

// ErrUnavailable is returned when the cache cannot answer.  The manager
// fails closed: an unreachable Redis is reported as "locked" so a cache
// outage can never mask a potential double-sell.  Callers surface this as
// a seat conflict, not as something to retry in a loop.
var ErrUnavailable = errors.New("seat lock unavailable")

// releaseScript deletes the key only while it still belongs to the given
// holder.  GET-then-DEL from the client would race with expiry handing the
// lock to someone else in between.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// extendScript refreshes the TTL only while the key still belongs to the
// given holder.
var extendScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	return 0
`)

// Manager issues per-seat advisory locks.  A nil Redis client puts the
// manager in degraded mode where every operation fails closed.
type Manager struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewManager returns a Manager using the given client and TTL.  A zero or
// negative TTL falls back to DefaultTTL.
func NewManager(rdb *redis.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{rdb: rdb, ttl: ttl}
}

// Key builds the cache key for one seat of a subject.  This layout is part
// of the deployment contract; nothing else is stored in the cache.
func Key(subjectID uint64, seat string) string {
	return fmt.Sprintf("lock:seat:%d:%s", subjectID, seat)
}

// Acquire takes the seat lock for holder if nobody holds it, using a single
// SET NX EX round trip.  It returns false when the seat is already locked
// by anyone (including holder) and ErrUnavailable when the cache cannot be
// reached.
func (m *Manager) Acquire(ctx context.Context, subjectID uint64, seat, holder string) (bool, error) {
	if m.rdb == nil {
		return false, ErrUnavailable
	}
	ok, err := m.rdb.SetNX(ctx, Key(subjectID, seat), holder, m.ttl).Result()
	if err != nil {
		return false, ErrUnavailable
	}
	return ok, nil
}

// Release drops the seat lock if it is still held by holder.  Returns false
// when the lock expired or belongs to someone else.
func (m *Manager) Release(ctx context.Context, subjectID uint64, seat, holder string) (bool, error) {
	if m.rdb == nil {
		return false, ErrUnavailable
	}
	n, err := releaseScript.Run(ctx, m.rdb, []string{Key(subjectID, seat)}, holder).Int()
	if err != nil {
		return false, ErrUnavailable
	}
	return n == 1, nil
}

// Extend refreshes the lock TTL if it is still held by holder.  Returns
// false when the lock expired or belongs to someone else.
func (m *Manager) Extend(ctx context.Context, subjectID uint64, seat, holder string) (bool, error) {
	if m.rdb == nil {
		return false, ErrUnavailable
	}
	n, err := extendScript.Run(ctx, m.rdb, []string{Key(subjectID, seat)}, holder, m.ttl.Milliseconds()).Int()
	if err != nil {
		return false, ErrUnavailable
	}
	return n == 1, nil
}

// Check returns the current holder of the seat lock, or "" when the seat is
// unlocked.  On cache failure it returns ErrUnavailable; callers must treat
// that as locked-by-unknown.
func (m *Manager) Check(ctx context.Context, subjectID uint64, seat string) (string, error) {
	if m.rdb == nil {
		return "", ErrUnavailable
	}
	holder, err := m.rdb.Get(ctx, Key(subjectID, seat)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", ErrUnavailable
	}
	return holder, nil
}

// TTL reports the configured lock lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }
