package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatKey(t *testing.T) {
	assert.Equal(t, "lock:event:7:seat:12", SeatKey(7, 12))
}

func TestAcquire_CreatesWhenAbsent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	coord := NewRedisCoordinator(db)

	key := SeatKey(1, 1)
	mock.ExpectSetNX(key, coord.holder, 5*time.Second).SetVal(true)

	ok, err := coord.Acquire(context.Background(), key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_ReportsHeldKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	coord := NewRedisCoordinator(db)

	key := SeatKey(1, 2)
	mock.ExpectSetNX(key, coord.holder, time.Second).SetVal(false)

	ok, err := coord.Acquire(context.Background(), key, time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "an existing key means another holder owns the seat")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquire_FailsClosedWhenRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	coord := NewRedisCoordinator(db)

	key := SeatKey(1, 3)
	mock.ExpectSetNX(key, coord.holder, time.Second).SetErr(errors.New("connection refused"))

	ok, err := coord.Acquire(context.Background(), key, time.Second)
	assert.Error(t, err)
	assert.False(t, ok, "an unreachable store must never count as acquired")
}

func TestRelease_IsIdempotent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	coord := NewRedisCoordinator(db)

	key := SeatKey(2, 1)
	mock.ExpectDel(key).SetVal(1)
	require.NoError(t, coord.Release(context.Background(), key))

	// Releasing an expired or already-released key is not an error.
	mock.ExpectDel(key).SetVal(0)
	require.NoError(t, coord.Release(context.Background(), key))
	assert.NoError(t, mock.ExpectationsWereMet())
}
