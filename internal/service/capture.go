package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfbarbosa/acervo/internal/database"
	"github.com/mfbarbosa/acervo/internal/model"
)

// TimelineFetcher fetches the full decoded timeline of one process from the
// upstream session.
type TimelineFetcher interface {
	FetchTimeline(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, idPje int64) ([]model.ItemTimeline, error)
}

// ProcessoStore is the relational slice used by the capture operations.
type ProcessoStore interface {
	GetByID(ctx context.Context, id int64) (*model.Processo, error)
	FindByNumero(ctx context.Context, numero string) ([]model.Processo, error)
}

// CaptureService runs single-instance timeline captures under the capture
// lock: fetch upstream, reconcile against the previous aggregate, persist to
// both stores.
type CaptureService struct {
	processos   ProcessoStore
	timelines   TimelineStore
	fetcher     TimelineFetcher
	reconciler  *Reconciler
	persistence *Persistence
	lock        *CaptureLock
}

// NewCaptureService creates a capture service.
func NewCaptureService(
	processos ProcessoStore,
	timelines TimelineStore,
	fetcher TimelineFetcher,
	reconciler *Reconciler,
	persistence *Persistence,
	lock *CaptureLock,
) *CaptureService {
	return &CaptureService{
		processos:   processos,
		timelines:   timelines,
		fetcher:     fetcher,
		reconciler:  reconciler,
		persistence: persistence,
		lock:        lock,
	}
}

func lockChaveProcesso(processoID int64) string {
	return fmt.Sprintf("captura:processo:%d", processoID)
}

// CapturarTimeline captures the timeline of one judicial-instance record.
// Concurrent captures of the same processo are serialized by the distributed
// lock; a second caller gets ErrCapturaEmAndamento instead of waiting.
func (s *CaptureService) CapturarTimeline(ctx context.Context, cred model.Credencial, processoID int64, opcoes model.OpcoesCaptura) (*model.ResultadoCaptura, error) {
	proc, err := s.processos.GetByID(ctx, processoID)
	if err != nil {
		return nil, err
	}

	var resultado *model.ResultadoCaptura
	err = s.lock.WithLock(ctx, lockChaveProcesso(proc.ID), func(ctx context.Context) error {
		resultado, err = s.capturar(ctx, cred, proc, opcoes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resultado, nil
}

func (s *CaptureService) capturar(ctx context.Context, cred model.Credencial, proc *model.Processo, opcoes model.OpcoesCaptura) (*model.ResultadoCaptura, error) {
	start := time.Now()

	slog.Info("Starting timeline capture",
		"processo_id", proc.ID,
		"numero", proc.Numero,
		"tribunal", proc.Tribunal,
		"grau", proc.Grau.Path(),
	)

	itens, err := s.fetcher.FetchTimeline(ctx, cred, proc.Tribunal, proc.Grau, proc.IDPje)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeline: %w", err)
	}

	anterior, err := s.timelines.Get(ctx, proc.Numero, proc.Tribunal, proc.Grau)
	if err != nil && !errors.Is(err, database.ErrTimelineNotFound) {
		return nil, fmt.Errorf("failed to load previous timeline: %w", err)
	}

	tl := s.reconciler.Reconcile(ctx, cred, proc, itens, anterior, opcoes)

	mongoID, err := s.persistence.Persist(ctx, proc, tl)
	if err != nil {
		return nil, err
	}

	slog.Info("Timeline capture completed",
		"processo_id", proc.ID,
		"numero", proc.Numero,
		"mongo_id", mongoID,
		"total_itens", tl.TotalItens,
		"total_documentos", tl.TotalDocumentos,
		"total_baixados_sucesso", tl.TotalBaixadosSucesso,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &model.ResultadoCaptura{
		TotalItens:           tl.TotalItens,
		TotalDocumentos:      tl.TotalDocumentos,
		TotalMovimentos:      tl.TotalMovimentos,
		TotalBaixadosSucesso: tl.TotalBaixadosSucesso,
		MongoID:              mongoID,
	}, nil
}
