package pje

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfbarbosa/acervo/internal/model"
)

// Page is one page of an upstream paginated listing. The PJE deployments
// report QtdPaginas == 0 when all results fit in a single page, so a zero
// page count with a non-empty Itens is NOT an error.
type Page[T any] struct {
	Itens      []T `json:"resultado"`
	QtdPaginas int `json:"qtdPaginas"`
}

// ProcessoAcervo is one row of the acervo listing.
type ProcessoAcervo struct {
	ID     int64  `json:"id"`
	Numero string `json:"numero"`
}

// itemWire is the raw upstream shape of a timeline entry before validation.
// Pointer fields distinguish "absent" from zero values so the decode can
// reject items that violate the upstream contract instead of silently
// defaulting them.
type itemWire struct {
	ID          *int64  `json:"id"`
	NumeroOrdem *int    `json:"numeroOrdem"`
	Titulo      string  `json:"titulo"`
	Data        *string `json:"data"`
	Documento   *bool   `json:"documento"`

	CodigoMovimentoCNJ string `json:"codigoMovimentoCNJ"`
	PodeExcluir        bool   `json:"podeExcluir"`
	PodeCorrigir       bool   `json:"podeCorrigir"`

	IDUnicoDocumento string `json:"idUnicoDocumento"`
	TipoConteudo     string `json:"tipoConteudo"`
	IDSignatario     *int64 `json:"idSignatario"`
	Sigiloso         bool   `json:"sigiloso"`
	Ponderavel       bool   `json:"ponderavel"`
}

// DecodeItens converts the raw timeline payload into validated model items.
// Each entry is a discriminated union on the documento flag; entries missing
// the discriminant or their identity fields fail the whole decode — a
// partially decoded timeline would corrupt downstream counts.
func DecodeItens(raw []json.RawMessage) ([]model.ItemTimeline, error) {
	itens := make([]model.ItemTimeline, 0, len(raw))
	for i, msg := range raw {
		var w itemWire
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, fmt.Errorf("timeline item %d: malformed JSON: %w", i, err)
		}
		item, err := w.toModel()
		if err != nil {
			return nil, fmt.Errorf("timeline item %d: %w", i, err)
		}
		itens = append(itens, item)
	}
	return itens, nil
}

func (w *itemWire) toModel() (model.ItemTimeline, error) {
	var item model.ItemTimeline

	if w.ID == nil {
		return item, fmt.Errorf("missing id")
	}
	if w.NumeroOrdem == nil {
		return item, fmt.Errorf("missing numeroOrdem")
	}
	if w.Documento == nil {
		return item, fmt.Errorf("missing documento discriminant")
	}

	item.ID = *w.ID
	item.NumeroOrdem = *w.NumeroOrdem
	item.Titulo = w.Titulo
	item.Documento = *w.Documento

	if w.Data != nil && *w.Data != "" {
		ts, err := time.Parse(time.RFC3339, *w.Data)
		if err != nil {
			return item, fmt.Errorf("invalid data %q: %w", *w.Data, err)
		}
		item.Data = ts
	}

	if item.Documento {
		if w.IDUnicoDocumento == "" {
			return item, fmt.Errorf("document item missing idUnicoDocumento")
		}
		item.IDUnicoDocumento = w.IDUnicoDocumento
		item.TipoConteudo = w.TipoConteudo
		// nil IDSignatario means unsigned; non-null values pass through as-is.
		item.IDSignatario = w.IDSignatario
		item.Sigiloso = w.Sigiloso
		item.Ponderavel = w.Ponderavel
	} else {
		item.CodigoMovimentoCNJ = w.CodigoMovimentoCNJ
		item.PodeExcluir = w.PodeExcluir
		item.PodeCorrigir = w.PodeCorrigir
	}

	return item, nil
}

// DocumentoDetalhe is the binary payload of one filed document.
type DocumentoDetalhe struct {
	Conteudo    []byte
	ContentType string
	Nome        string
}
