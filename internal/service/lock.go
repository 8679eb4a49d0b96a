package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrCapturaEmAndamento signals that a capture is already in progress for the
// requested resource. Callers present "try again shortly" instead of a
// generic failure.
var ErrCapturaEmAndamento = errors.New("captura já em andamento")

// LockStore is the row-store slice the lock rides on.
type LockStore interface {
	TryInsert(ctx context.Context, chave, detentor string, expiraEm time.Time) (bool, error)
	Delete(ctx context.Context, chave, detentor string) error
}

// LockOptions tune one acquire attempt. TTL must be sized generously above
// the expected capture duration: expiry is the only recovery path from a
// crashed holder, and a holder that outlives its TTL can briefly overlap with
// the next acquirer.
type LockOptions struct {
	TTL          time.Duration
	AcquireWait  time.Duration // 0 = fail immediately when held
	PollInterval time.Duration
}

// CaptureLock serializes captures per resource chave through the shared
// row-store. Each acquire mints a fresh holder token so releases cannot free
// another holder's lock.
type CaptureLock struct {
	store LockStore
	opts  LockOptions
}

// NewCaptureLock creates a capture lock service.
func NewCaptureLock(store LockStore, opts LockOptions) *CaptureLock {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &CaptureLock{store: store, opts: opts}
}

// Held is one successfully acquired lock.
type Held struct {
	lock     *CaptureLock
	chave    string
	detentor string
	released bool
}

// Acquire attempts to take chave. When the key is held and AcquireWait is
// zero it reports not-acquired immediately; otherwise it polls until the key
// frees or AcquireWait elapses.
func (l *CaptureLock) Acquire(ctx context.Context, chave string) (*Held, bool, error) {
	detentor := uuid.NewString()
	deadline := time.Now().Add(l.opts.AcquireWait)

	for {
		ok, err := l.store.TryInsert(ctx, chave, detentor, time.Now().Add(l.opts.TTL))
		if err != nil {
			return nil, false, fmt.Errorf("failed to acquire lock %q: %w", chave, err)
		}
		if ok {
			slog.Debug("Acquired capture lock", "chave", chave)
			return &Held{lock: l, chave: chave, detentor: detentor}, true, nil
		}

		if l.opts.AcquireWait == 0 || time.Now().After(deadline) {
			return nil, false, nil
		}

		select {
		case <-time.After(l.opts.PollInterval):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Release frees the lock. Releasing twice, or a handle that was never
// acquired, is a logged no-op.
func (h *Held) Release(ctx context.Context) {
	if h == nil || h.released {
		slog.Debug("Release without held lock ignored")
		return
	}
	h.released = true
	if err := h.lock.store.Delete(ctx, h.chave, h.detentor); err != nil {
		slog.Error("Failed to release capture lock", "chave", h.chave, "error", err)
	}
}

// WithLock runs fn while holding chave. When the key is already held it
// returns ErrCapturaEmAndamento. The lock is released even when fn fails.
func (l *CaptureLock) WithLock(ctx context.Context, chave string, fn func(ctx context.Context) error) error {
	held, acquired, err := l.Acquire(ctx, chave)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrCapturaEmAndamento, chave)
	}
	defer held.Release(ctx)

	return fn(ctx)
}
