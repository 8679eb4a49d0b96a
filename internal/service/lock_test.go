package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lockRow struct {
	detentor string
	expiraEm time.Time
}

// fakeLockStore reproduces the row-store semantics: one live row per chave,
// expired rows reclaimable by any acquirer.
type fakeLockStore struct {
	mu   sync.Mutex
	rows map[string]lockRow
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{rows: make(map[string]lockRow)}
}

func (s *fakeLockStore) TryInsert(ctx context.Context, chave, detentor string, expiraEm time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[chave]; ok && row.expiraEm.After(time.Now()) {
		return false, nil
	}
	s.rows[chave] = lockRow{detentor: detentor, expiraEm: expiraEm}
	return true, nil
}

func (s *fakeLockStore) Delete(ctx context.Context, chave, detentor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[chave]; ok && row.detentor == detentor {
		delete(s.rows, chave)
	}
	return nil
}

func newTestLock(store LockStore) *CaptureLock {
	return NewCaptureLock(store, LockOptions{
		TTL:          time.Minute,
		AcquireWait:  0,
		PollInterval: time.Millisecond,
	})
}

func TestLockMutualExclusion(t *testing.T) {
	store := newFakeLockStore()
	lock := newTestLock(store)

	const workers = 2
	acquired := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := lock.Acquire(context.Background(), "captura:processo:1")
			require.NoError(t, err)
			acquired <- ok
		}()
	}
	wg.Wait()
	close(acquired)

	wins := 0
	for ok := range acquired {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one concurrent acquire must win")
}

func TestLockExpiryRecovery(t *testing.T) {
	store := newFakeLockStore()
	store.rows["captura:processo:2"] = lockRow{
		detentor: "crashed-holder",
		expiraEm: time.Now().Add(-time.Minute),
	}

	lock := newTestLock(store)
	held, ok, err := lock.Acquire(context.Background(), "captura:processo:2")
	require.NoError(t, err)
	assert.True(t, ok, "a stale row must not block acquisition")
	held.Release(context.Background())
}

func TestLockReleaseFreesKey(t *testing.T) {
	store := newFakeLockStore()
	lock := newTestLock(store)

	held, ok, err := lock.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)

	held.Release(context.Background())

	_, ok, err = lock.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockDoubleReleaseIsNoOp(t *testing.T) {
	store := newFakeLockStore()
	lock := newTestLock(store)

	held, _, err := lock.Acquire(context.Background(), "k")
	require.NoError(t, err)

	held.Release(context.Background())
	held.Release(context.Background()) // must not panic or free another holder

	again, ok, err := lock.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)

	held.Release(context.Background())

	// The stale handle's second release must not have freed the new holder.
	_, ok, err = lock.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
	again.Release(context.Background())
}

func TestWithLockContention(t *testing.T) {
	store := newFakeLockStore()
	lock := newTestLock(store)

	held, _, err := lock.Acquire(context.Background(), "busy")
	require.NoError(t, err)
	defer held.Release(context.Background())

	err = lock.WithLock(context.Background(), "busy", func(ctx context.Context) error {
		t.Fatal("fn must not run while the key is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrCapturaEmAndamento)
}

func TestWithLockReleasesOnError(t *testing.T) {
	store := newFakeLockStore()
	lock := newTestLock(store)

	boom := errors.New("capture blew up")
	err := lock.WithLock(context.Background(), "k", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The key must be free again even though fn failed.
	_, ok, err := lock.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireWaitPollsUntilFree(t *testing.T) {
	store := newFakeLockStore()
	waiting := NewCaptureLock(store, LockOptions{
		TTL:          time.Minute,
		AcquireWait:  time.Second,
		PollInterval: time.Millisecond,
	})

	held, ok, err := newTestLock(store).Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(10 * time.Millisecond)
		held.Release(context.Background())
	}()

	_, ok, err = waiting.Acquire(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok, "poll loop must pick the key up after release")
}
