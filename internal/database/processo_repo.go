package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
)

// ErrProcessoNotFound is returned when no processo row matches a lookup.
var ErrProcessoNotFound = errors.New("processo not found")

// ProcessoRepository handles process record operations on the relational store
type ProcessoRepository struct {
	db *sql.DB
}

// NewProcessoRepository creates a new processo repository
func NewProcessoRepository(db *sql.DB) *ProcessoRepository {
	return &ProcessoRepository{db: db}
}

const processoColumns = `id, tribunal, grau, id_pje, numero, advogado_id, timeline_mongo_id, ultima_captura, criado_em`

func scanProcesso(row interface{ Scan(...any) error }) (*model.Processo, error) {
	var p model.Processo
	var grau int16
	err := row.Scan(&p.ID, &p.Tribunal, &grau, &p.IDPje, &p.Numero,
		&p.AdvogadoID, &p.TimelineMongoID, &p.UltimaCaptura, &p.CriadoEm)
	if err != nil {
		return nil, err
	}
	p.Grau = model.Grau(grau)
	return &p, nil
}

// Upsert inserts a processo discovered via listing capture, or refreshes its
// numero and advogado on re-discovery. Identity is (tribunal, grau, id_pje);
// the cross-reference and capture timestamp are never touched here.
// Returns true when the row was newly created.
func (r *ProcessoRepository) Upsert(ctx context.Context, p *model.Processo) (bool, error) {
	var inserted bool
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO processos (tribunal, grau, id_pje, numero, advogado_id)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (tribunal, grau, id_pje)
        DO UPDATE SET numero = EXCLUDED.numero, advogado_id = EXCLUDED.advogado_id
        RETURNING id, criado_em, (xmax = 0)
    `, p.Tribunal, int16(p.Grau), p.IDPje, p.Numero, p.AdvogadoID)
	if err := row.Scan(&p.ID, &p.CriadoEm, &inserted); err != nil {
		return false, fmt.Errorf("failed to upsert processo: %w", err)
	}
	return inserted, nil
}

// GetByID retrieves a processo by its relational id.
func (r *ProcessoRepository) GetByID(ctx context.Context, id int64) (*model.Processo, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+processoColumns+` FROM processos WHERE id = $1`, id)
	p, err := scanProcesso(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProcessoNotFound
		}
		return nil, fmt.Errorf("failed to get processo: %w", err)
	}
	return p, nil
}

// FindByNumero returns every instance row sharing a process number — the
// first-degree, second-degree and superior-tribunal manifestations of the
// same case.
func (r *ProcessoRepository) FindByNumero(ctx context.Context, numero string) ([]model.Processo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+processoColumns+` FROM processos WHERE numero = $1 ORDER BY grau, tribunal`, numero)
	if err != nil {
		return nil, fmt.Errorf("failed to find processos by numero: %w", err)
	}
	defer rows.Close()

	var out []model.Processo
	for rows.Next() {
		p, err := scanProcesso(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processo: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processos: %w", err)
	}
	return out, nil
}

// ListByAdvogado lists process records assigned to an attorney.
func (r *ProcessoRepository) ListByAdvogado(ctx context.Context, advogadoID int64, limit, offset int) ([]model.Processo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+processoColumns+` FROM processos
         WHERE advogado_id = $1 ORDER BY criado_em DESC LIMIT $2 OFFSET $3`,
		advogadoID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list processos: %w", err)
	}
	defer rows.Close()

	var out []model.Processo
	for rows.Next() {
		p, err := scanProcesso(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processo: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate processos: %w", err)
	}
	return out, nil
}

// SetTimelineRef points the processo at its timeline aggregate and stamps the
// capture time. Called only after the document-store write succeeded, so the
// pointer never references a missing aggregate.
func (r *ProcessoRepository) SetTimelineRef(ctx context.Context, id int64, mongoID string, capturadoEm time.Time) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE processos SET timeline_mongo_id = $2, ultima_captura = $3 WHERE id = $1
    `, id, mongoID, capturadoEm)
	if err != nil {
		return fmt.Errorf("failed to set timeline ref: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProcessoNotFound
	}
	return nil
}
