package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
)

// TimelineStore is the document-store slice used by persistence.
type TimelineStore interface {
	Upsert(ctx context.Context, tl *model.Timeline) (string, error)
	Get(ctx context.Context, numero string, tribunal int, grau model.Grau) (*model.Timeline, error)
}

// ProcessoRefStore updates the relational cross-reference after a document
// write.
type ProcessoRefStore interface {
	SetTimelineRef(ctx context.Context, id int64, mongoID string, capturadoEm time.Time) error
}

// Persistence writes a capture to both stores: the document-store aggregate
// first, then the relational pointer. The ordering guarantees the pointer
// never references a missing or stale aggregate. A pointer update that fails
// after a successful document write leaves an orphaned aggregate, which the
// next capture overwrites — logged, never fatal.
type Persistence struct {
	timelines TimelineStore
	processos ProcessoRefStore
}

// NewPersistence creates the dual-store persistence.
func NewPersistence(timelines TimelineStore, processos ProcessoRefStore) *Persistence {
	return &Persistence{timelines: timelines, processos: processos}
}

// Persist upserts the timeline aggregate for the processo's triple and points
// the relational row at it. Returns the aggregate id.
func (p *Persistence) Persist(ctx context.Context, proc *model.Processo, tl *model.Timeline) (string, error) {
	mongoID, err := p.timelines.Upsert(ctx, tl)
	if err != nil {
		return "", fmt.Errorf("failed to persist timeline: %w", err)
	}

	if err := p.processos.SetTimelineRef(ctx, proc.ID, mongoID, tl.CapturadoEm); err != nil {
		slog.Error("Timeline persisted but cross-reference update failed; next capture will overwrite",
			"processo_id", proc.ID,
			"numero", proc.Numero,
			"mongo_id", mongoID,
			"error", err,
		)
		return mongoID, nil
	}

	return mongoID, nil
}
