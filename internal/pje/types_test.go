package pje

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItems(t *testing.T, docs ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, json.RawMessage(d))
	}
	return out
}

func TestDecodeItensMovementAndDocument(t *testing.T) {
	itens, err := DecodeItens(rawItems(t,
		`{"id": 1, "numeroOrdem": 1, "documento": false, "titulo": "Distribuição", "codigoMovimentoCNJ": "26", "podeExcluir": false, "data": "2024-03-01T10:00:00Z"}`,
		`{"id": 2, "numeroOrdem": 2, "documento": true, "titulo": "Petição Inicial.pdf", "idUnicoDocumento": "doc-abc", "tipoConteudo": "application/pdf", "idSignatario": 42, "sigiloso": false, "ponderavel": true}`,
	))
	require.NoError(t, err)
	require.Len(t, itens, 2)

	mov := itens[0]
	assert.False(t, mov.Documento)
	assert.Equal(t, "26", mov.CodigoMovimentoCNJ)
	assert.Empty(t, mov.IDUnicoDocumento)

	doc := itens[1]
	assert.True(t, doc.Documento)
	assert.Equal(t, "doc-abc", doc.IDUnicoDocumento)
	require.NotNil(t, doc.IDSignatario)
	assert.EqualValues(t, 42, *doc.IDSignatario)
	assert.True(t, doc.Ponderavel)
}

func TestDecodeItensNullSignatarioIsUnsigned(t *testing.T) {
	itens, err := DecodeItens(rawItems(t,
		`{"id": 3, "numeroOrdem": 1, "documento": true, "titulo": "Ata.pdf", "idUnicoDocumento": "doc-x", "idSignatario": null}`,
	))
	require.NoError(t, err)
	require.Len(t, itens, 1)

	assert.Nil(t, itens[0].IDSignatario)
	assert.False(t, itens[0].Assinado())
}

func TestDecodeItensMissingDiscriminantFails(t *testing.T) {
	_, err := DecodeItens(rawItems(t,
		`{"id": 4, "numeroOrdem": 1, "titulo": "sem discriminante"}`,
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documento discriminant")
}

func TestDecodeItensDocumentWithoutIDFails(t *testing.T) {
	_, err := DecodeItens(rawItems(t,
		`{"id": 5, "numeroOrdem": 1, "documento": true, "titulo": "sem id"}`,
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idUnicoDocumento")
}

func TestDecodeItensOneBadItemFailsWholeDecode(t *testing.T) {
	_, err := DecodeItens(rawItems(t,
		`{"id": 1, "numeroOrdem": 1, "documento": false}`,
		`{"numeroOrdem": 2, "documento": false}`,
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
}
