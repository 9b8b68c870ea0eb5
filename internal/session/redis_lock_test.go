package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	d "github.com/fjod/go_cart/storefront/domain"
)

func setupRedisLocker(t *testing.T, mr *miniredis.Miniredis, lease time.Duration) *RedisLocker {
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	locker := NewRedisLocker(client, lease)
	locker.retryDelay = 2 * time.Millisecond
	return locker
}

func TestRedisLocker_ExcludesOtherHolders(t *testing.T) {
	mr := miniredis.RunT(t)
	a := setupRedisLocker(t, mr, time.Minute)
	b := setupRedisLocker(t, mr, time.Minute)

	unlock, err := a.Lock(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:session:s1"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = b.Lock(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	assert.False(t, mr.Exists("lock:session:s1"))

	unlockB, err := b.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlockB()
}

func TestRedisLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr := miniredis.RunT(t)
	locker := setupRedisLocker(t, mr, time.Minute)

	unlock, err := locker.Lock(context.Background(), "s1")
	require.NoError(t, err)

	// lease expired and someone else took the lock
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("lock:session:s1", "other-token"))

	unlock()

	got, err := mr.Get("lock:session:s1")
	require.NoError(t, err)
	assert.Equal(t, "other-token", got)
}

func TestRedisLocker_LeaseExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	a := setupRedisLocker(t, mr, time.Second)
	b := setupRedisLocker(t, mr, time.Second)

	_, err := a.Lock(context.Background(), "s1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	unlock, err := b.Lock(context.Background(), "s1")
	require.NoError(t, err)
	unlock()
}

func TestManager_ReplicasShareRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client, time.Hour)

	replicas := []*Manager{
		NewManagerWithLocker(store, setupRedisLocker(t, mr, time.Minute)),
		NewManagerWithLocker(store, setupRedisLocker(t, mr, time.Minute)),
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for _, m := range replicas {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(m *Manager) {
				defer wg.Done()
				assert.NoError(t, m.Update(ctx, "shared", func(s *State) error {
					s.Cart.Add(1)
					return nil
				}))
			}(m)
		}
	}
	wg.Wait()

	s, err := replicas[0].View(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 40, s.Cart.Quantity(1))
	assert.False(t, mr.Exists("lock:session:shared"))
}

func TestPendingSubmission_Matches(t *testing.T) {
	p := &PendingSubmission{Lines: []d.OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}}}

	assert.True(t, p.Matches(d.NewCartSnapshot(d.CartEntry{ProductID: 1, Quantity: 2}, d.CartEntry{ProductID: 3, Quantity: 1})))
	assert.False(t, p.Matches(d.NewCartSnapshot(d.CartEntry{ProductID: 1, Quantity: 3}, d.CartEntry{ProductID: 3, Quantity: 1})))
	assert.False(t, p.Matches(d.NewCartSnapshot(d.CartEntry{ProductID: 1, Quantity: 2})))
	assert.False(t, (*PendingSubmission)(nil).Matches(d.NewCartSnapshot()))
}
