package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}

	slog.Info("Connecting to PostgreSQL")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL")
	return db, nil
}

// EnsureSchema creates the relational tables if they do not exist. Deploys
// with managed migrations can run with an already-provisioned schema; the
// statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS processos (
			id              BIGSERIAL PRIMARY KEY,
			tribunal        SMALLINT NOT NULL,
			grau            SMALLINT NOT NULL,
			id_pje          BIGINT NOT NULL,
			numero          TEXT NOT NULL,
			advogado_id     BIGINT NOT NULL,
			timeline_mongo_id TEXT,
			ultima_captura  TIMESTAMPTZ,
			criado_em       TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (tribunal, grau, id_pje)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processos_numero ON processos (numero)`,
		`CREATE TABLE IF NOT EXISTS capture_locks (
			chave     TEXT PRIMARY KEY,
			detentor  TEXT NOT NULL,
			expira_em TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	slog.Info("PostgreSQL schema ensured")
	return nil
}
