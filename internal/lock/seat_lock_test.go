package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "lock:seat:42:A7", Key(42, "A7"))
}

func TestAcquire_Success(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)

	mock.ExpectSetNX(Key(7, "B2"), "101", 5*time.Minute).SetVal(true)

	ok, err := m.Acquire(context.Background(), 7, "B2", "101")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_AlreadyHeld(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)

	mock.ExpectSetNX(Key(7, "B2"), "101", 5*time.Minute).SetVal(false)

	ok, err := m.Acquire(context.Background(), 7, "B2", "101")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestAcquire_RedisErrorFailsClosed(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)

	mock.ExpectSetNX(Key(7, "B2"), "101", 5*time.Minute).SetErr(errors.New("connection refused"))

	ok, err := m.Acquire(context.Background(), 7, "B2", "101")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, ok)
}

func TestNilClientFailsClosed(t *testing.T) {
	m := NewManager(nil, 0)
	ctx := context.Background()

	_, err := m.Acquire(ctx, 1, "A1", "u")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Release(ctx, 1, "A1", "u")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Extend(ctx, 1, "A1", "u")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = m.Check(ctx, 1, "A1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRelease_OnlyHolderReleases(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)
	ctx := context.Background()

	mock.ExpectEvalSha(releaseScript.Hash(), []string{Key(7, "B2")}, "101").SetVal(int64(1))
	ok, err := m.Release(ctx, 7, "B2", "101")
	assert.NoError(t, err)
	assert.True(t, ok)

	// The script returns 0 when the key belongs to someone else or expired.
	mock.ExpectEvalSha(releaseScript.Hash(), []string{Key(7, "B2")}, "202").SetVal(int64(0))
	ok, err = m.Release(ctx, 7, "B2", "202")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtend_RefreshesHeldLock(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)
	ctx := context.Background()

	mock.ExpectEvalSha(extendScript.Hash(), []string{Key(7, "B2")}, "101", int64(300000)).SetVal(int64(1))
	ok, err := m.Extend(ctx, 7, "B2", "101")
	assert.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectEvalSha(extendScript.Hash(), []string{Key(7, "B2")}, "101", int64(300000)).SetVal(int64(0))
	ok, err = m.Extend(ctx, 7, "B2", "101")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCheck(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb, 5*time.Minute)
	ctx := context.Background()

	mock.ExpectGet(Key(9, "C3")).SetVal("101")
	holder, err := m.Check(ctx, 9, "C3")
	assert.NoError(t, err)
	assert.Equal(t, "101", holder)

	mock.ExpectGet(Key(9, "C4")).RedisNil()
	holder, err = m.Check(ctx, 9, "C4")
	assert.NoError(t, err)
	assert.Equal(t, "", holder)
}

func TestDefaultTTLFallback(t *testing.T) {
	m := NewManager(nil, -time.Second)
	assert.Equal(t, DefaultTTL, m.TTL())
}
