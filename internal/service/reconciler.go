package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/pje"
	"github.com/mfbarbosa/acervo/internal/storage"
)

// DocumentoFetcher downloads document binaries from the upstream session.
type DocumentoFetcher interface {
	FetchDocumento(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, idPje int64, item model.ItemTimeline) (*pje.DocumentoDetalhe, error)
	DocumentoURL(tribunal int, grau model.Grau, idPje, itemID int64) string
}

// Archiver uploads document binaries to object storage.
type Archiver interface {
	Upload(ctx context.Context, conteudo []byte, nomeSugerido, contentType, folder string) (*storage.Arquivo, error)
}

// Reconciler merges freshly captured timeline items with previously archived
// document references, downloads what still needs downloading and assembles
// the replacement timeline aggregate.
type Reconciler struct {
	fetcher  DocumentoFetcher
	archiver Archiver
	folder   string
}

// NewReconciler creates a timeline reconciler.
func NewReconciler(fetcher DocumentoFetcher, archiver Archiver, folder string) *Reconciler {
	return &Reconciler{fetcher: fetcher, archiver: archiver, folder: folder}
}

// Reconcile builds the timeline aggregate for one capture. anterior is the
// previously persisted aggregate for the same triple, or nil on first
// capture; documents it already archived keep their references instead of
// being downloaded again.
//
// A single document failure never aborts the capture: the error is recorded
// on that item and the item stays in the listing without a file reference.
// Partial success is the normal case for large timelines.
//
// TotalBaixadosSucesso reports the documents the requested policy secured
// this run, whether freshly downloaded or carried over from anterior. A
// reattached reference outside the policy (listing-only capture, filtered
// item) is preserved but not counted.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	cred model.Credencial,
	proc *model.Processo,
	itens []model.ItemTimeline,
	anterior *model.Timeline,
	opcoes model.OpcoesCaptura,
) *model.Timeline {
	// Canonical display order. The upstream reports numeroOrdem stable across
	// recaptures for items it still lists.
	sort.SliceStable(itens, func(i, j int) bool {
		return itens[i].NumeroOrdem < itens[j].NumeroOrdem
	})

	arquivados := arquivosAnteriores(anterior)

	tl := &model.Timeline{
		NumeroProcesso: proc.Numero,
		Tribunal:       proc.Tribunal,
		Grau:           proc.Grau,
		SchemaVersion:  model.TimelineSchemaVersion,
		CapturadoEm:    time.Now().UTC(),
		Itens:          itens,
	}

	for i := range tl.Itens {
		item := &tl.Itens[i]
		if !item.Documento {
			tl.TotalMovimentos++
			continue
		}
		tl.TotalDocumentos++

		// Already-archived references are always reattached so a recapture
		// never loses a stored file, but they only count as a download
		// success when the current policy would have downloaded them.
		if arq, ok := arquivados[item.IDUnicoDocumento]; ok {
			item.Arquivo = arq
			if opcoes.BaixarDocumentos && r.elegivel(item, opcoes) {
				tl.TotalBaixadosSucesso++
			}
			continue
		}

		// Visibility and archival are independent: filtered-out documents
		// stay in the listing, they just skip the download.
		if !opcoes.BaixarDocumentos || !r.elegivel(item, opcoes) {
			continue
		}

		if err := r.baixarEArquivar(ctx, cred, proc, item); err != nil {
			item.ErroDownload = err.Error()
			slog.Warn("Failed to archive document, continuing capture",
				"numero", proc.Numero,
				"tribunal", proc.Tribunal,
				"id_unico_documento", item.IDUnicoDocumento,
				"error", err,
			)
			continue
		}
		tl.TotalBaixadosSucesso++
	}

	tl.TotalItens = len(tl.Itens)
	return tl
}

// elegivel applies the archival policy filters to a document item.
func (r *Reconciler) elegivel(item *model.ItemTimeline, opcoes model.OpcoesCaptura) bool {
	if opcoes.ApenasAssinados && !item.Assinado() {
		return false
	}
	if opcoes.IgnorarSigilosos && item.Sigiloso {
		return false
	}
	return true
}

func (r *Reconciler) baixarEArquivar(ctx context.Context, cred model.Credencial, proc *model.Processo, item *model.ItemTimeline) error {
	det, err := r.fetcher.FetchDocumento(ctx, cred, proc.Tribunal, proc.Grau, proc.IDPje, *item)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}

	arq, err := r.archiver.Upload(ctx, det.Conteudo, det.Nome, det.ContentType, r.folder)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	item.Arquivo = &model.ArquivoArmazenado{
		URLOrigem: r.fetcher.DocumentoURL(proc.Tribunal, proc.Grau, proc.IDPje, item.ID),
		Bucket:    arq.Bucket,
		Chave:     arq.Chave,
		URL:       arq.URL,
		Tamanho:   arq.Tamanho,
		EnviadoEm: time.Now().UTC(),
	}
	return nil
}

// arquivosAnteriores indexes the previous capture's archived references by
// document id.
func arquivosAnteriores(anterior *model.Timeline) map[string]*model.ArquivoArmazenado {
	refs := make(map[string]*model.ArquivoArmazenado)
	if anterior == nil {
		return refs
	}
	for i := range anterior.Itens {
		item := &anterior.Itens[i]
		if item.Documento && item.Arquivo != nil {
			refs[item.IDUnicoDocumento] = item.Arquivo
		}
	}
	return refs
}
