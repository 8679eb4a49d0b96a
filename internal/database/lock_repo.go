package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// LockRepository persists capture locks as rows keyed by the lock chave.
// The primary-key constraint makes the insert atomic: whoever lands the row
// holds the lock. Expired rows are logically dead and reclaimed on acquire.
type LockRepository struct {
	db *sql.DB
}

// NewLockRepository creates a new lock repository
func NewLockRepository(db *sql.DB) *LockRepository {
	return &LockRepository{db: db}
}

// TryInsert attempts to claim chave for detentor until expiraEm. Returns
// false when a live row for the chave already exists. A stale row past its
// expiry is deleted first, so crashed holders do not wedge the key.
func (r *LockRepository) TryInsert(ctx context.Context, chave, detentor string, expiraEm time.Time) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctxTimeout,
		`DELETE FROM capture_locks WHERE chave = $1 AND expira_em < now()`, chave); err != nil {
		return false, fmt.Errorf("failed to reap expired lock: %w", err)
	}

	res, err := r.db.ExecContext(ctxTimeout, `
        INSERT INTO capture_locks (chave, detentor, expira_em)
        VALUES ($1, $2, $3)
        ON CONFLICT (chave) DO NOTHING
    `, chave, detentor, expiraEm)
	if err != nil {
		return false, fmt.Errorf("failed to insert lock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read lock insert result: %w", err)
	}
	return n > 0, nil
}

// Delete releases a lock, but only if it is still held by detentor. Releasing
// another holder's lock is a silent no-op.
func (r *LockRepository) Delete(ctx context.Context, chave, detentor string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctxTimeout,
		`DELETE FROM capture_locks WHERE chave = $1 AND detentor = $2`, chave, detentor)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.Debug("Released capture lock", "chave", chave)
	}
	return nil
}

// CleanExpired removes every lock past its expiry. Run opportunistically; the
// per-key reap in TryInsert already keeps individual keys healthy.
func (r *LockRepository) CleanExpired(ctx context.Context) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctxTimeout,
		`DELETE FROM capture_locks WHERE expira_em < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired locks: %w", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("Cleaned expired capture locks", "count", n)
	}
	return n, nil
}
