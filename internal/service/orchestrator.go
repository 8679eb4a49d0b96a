package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mfbarbosa/acervo/internal/model"
)

// ErrNenhumaInstancia is returned when a process number matches no known
// instance record.
var ErrNenhumaInstancia = errors.New("nenhuma instância encontrada para o processo")

// CapturadorTimeline is the single-instance capture operation the
// orchestrator drives.
type CapturadorTimeline interface {
	CapturarTimeline(ctx context.Context, cred model.Credencial, processoID int64, opcoes model.OpcoesCaptura) (*model.ResultadoCaptura, error)
}

// Orchestrator recaptures every known judicial instance of a process number —
// first degree, second degree and superior tribunal rows share the numero but
// carry distinct upstream ids — and folds the per-instance outcomes into one
// report.
type Orchestrator struct {
	processos  ProcessoStore
	capturador CapturadorTimeline
}

// NewOrchestrator creates a multi-instance orchestrator.
func NewOrchestrator(processos ProcessoStore, capturador CapturadorTimeline) *Orchestrator {
	return &Orchestrator{processos: processos, capturador: capturador}
}

// RecapturarTodasInstancias recaptures each instance sequentially. The
// sequencing is deliberate: the upstream tribunal systems share session
// infrastructure and a concurrent burst would trip their rate limits.
//
// A failing instance is recorded in its report entry and never blocks the
// siblings; the call itself only fails when the instance list cannot be read
// or the numero is unknown.
func (o *Orchestrator) RecapturarTodasInstancias(ctx context.Context, cred model.Credencial, numero string, opcoes model.OpcoesCaptura) (*model.RelatorioRecaptura, error) {
	instancias, err := o.processos.FindByNumero(ctx, numero)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of %s: %w", numero, err)
	}
	if len(instancias) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNenhumaInstancia, numero)
	}

	relatorio := &model.RelatorioRecaptura{
		NumeroProcesso: numero,
		Resultados:     make([]model.ResultadoInstancia, 0, len(instancias)),
	}

	for _, inst := range instancias {
		entry := model.ResultadoInstancia{
			ProcessoID: inst.ID,
			Tribunal:   inst.Tribunal,
			Grau:       inst.Grau,
		}

		resultado, err := o.capturador.CapturarTimeline(ctx, cred, inst.ID, opcoes)
		if err != nil {
			entry.Status = "erro"
			entry.Erro = err.Error()
			relatorio.TotalErro++
			slog.Warn("Instance recapture failed, continuing with siblings",
				"numero", numero,
				"processo_id", inst.ID,
				"tribunal", inst.Tribunal,
				"grau", inst.Grau.Path(),
				"error", err,
			)
		} else {
			entry.Status = "ok"
			entry.TotalItens = resultado.TotalItens
			entry.TotalDocumentos = resultado.TotalDocumentos
			entry.TotalMovimentos = resultado.TotalMovimentos
			entry.MongoID = resultado.MongoID
			relatorio.TotalSucesso++
		}

		relatorio.Resultados = append(relatorio.Resultados, entry)
	}

	slog.Info("Multi-instance recapture completed",
		"numero", numero,
		"instancias", len(instancias),
		"sucesso", relatorio.TotalSucesso,
		"erro", relatorio.TotalErro,
	)

	return relatorio, nil
}
