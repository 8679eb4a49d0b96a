package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/pje"
)

// AcervoFetcher fetches one page of the attorney's acervo listing.
type AcervoFetcher interface {
	FetchAcervoPage(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, pagina, tamanhoPagina int) (*pje.Page[pje.ProcessoAcervo], error)
}

// ProcessoUpserter records processos discovered via listing capture.
type ProcessoUpserter interface {
	Upsert(ctx context.Context, p *model.Processo) (bool, error)
}

// AcervoService drains the paginated acervo listing of one (tribunal, grau)
// and upserts the discovered process records. This is how process rows come
// into existence; timeline captures only mutate them afterwards.
type AcervoService struct {
	fetcher   AcervoFetcher
	processos ProcessoUpserter
	pager     *pje.Pager
	lock      *CaptureLock
}

// NewAcervoService creates an acervo capture service.
func NewAcervoService(fetcher AcervoFetcher, processos ProcessoUpserter, pager *pje.Pager, lock *CaptureLock) *AcervoService {
	return &AcervoService{fetcher: fetcher, processos: processos, pager: pager, lock: lock}
}

func lockChaveAcervo(advogadoID int64, tribunal int, grau model.Grau) string {
	return fmt.Sprintf("acervo:%d:trt%02d:g%d", advogadoID, tribunal, int(grau))
}

// CapturarAcervo drains the listing for one credential against one tribunal
// instance, serialized per (advogado, tribunal, grau) by the capture lock.
func (s *AcervoService) CapturarAcervo(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau) (*model.ResultadoAcervo, error) {
	if tribunal < 1 || tribunal > 24 {
		return nil, fmt.Errorf("tribunal must be between 1 and 24, got %d", tribunal)
	}
	if !grau.Valid() {
		return nil, fmt.Errorf("invalid grau: %d", int(grau))
	}

	var resultado *model.ResultadoAcervo
	err := s.lock.WithLock(ctx, lockChaveAcervo(cred.AdvogadoID, tribunal, grau), func(ctx context.Context) error {
		var err error
		resultado, err = s.capturar(ctx, cred, tribunal, grau)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resultado, nil
}

func (s *AcervoService) capturar(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau) (*model.ResultadoAcervo, error) {
	start := time.Now()

	slog.Info("Starting acervo capture",
		"advogado_id", cred.AdvogadoID,
		"tribunal", tribunal,
		"grau", grau.Path(),
	)

	listados, err := pje.DrainPages(ctx, s.pager, func(ctx context.Context, pagina, tamanhoPagina int) (*pje.Page[pje.ProcessoAcervo], error) {
		return s.fetcher.FetchAcervoPage(ctx, cred, tribunal, grau, pagina, tamanhoPagina)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to drain acervo listing: %w", err)
	}

	resultado := &model.ResultadoAcervo{
		Tribunal:      tribunal,
		Grau:          grau,
		TotalListados: len(listados),
	}

	for _, listado := range listados {
		proc := &model.Processo{
			Tribunal:   tribunal,
			Grau:       grau,
			IDPje:      listado.ID,
			Numero:     listado.Numero,
			AdvogadoID: cred.AdvogadoID,
		}
		if err := proc.Validate(); err != nil {
			slog.Warn("Skipping invalid acervo row",
				"tribunal", tribunal,
				"id_pje", listado.ID,
				"error", err,
			)
			continue
		}

		novo, err := s.processos.Upsert(ctx, proc)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert processo %s: %w", proc.Numero, err)
		}
		if novo {
			resultado.TotalNovos++
		} else {
			resultado.TotalAtualizado++
		}
	}

	slog.Info("Acervo capture completed",
		"tribunal", tribunal,
		"grau", grau.Path(),
		"listados", resultado.TotalListados,
		"novos", resultado.TotalNovos,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resultado, nil
}
