package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimelineSchemaVersion is stamped on every timeline aggregate so older
// captures can be recognized after the item shape evolves.
const TimelineSchemaVersion = 2

// ArquivoArmazenado references a document binary uploaded to object storage.
type ArquivoArmazenado struct {
	URLOrigem string    `json:"urlOrigem" bson:"url_origem"`
	Bucket    string    `json:"bucket" bson:"bucket"`
	Chave     string    `json:"chave" bson:"chave"`
	URL       string    `json:"url" bson:"url"`
	Tamanho   int64     `json:"tamanho" bson:"tamanho"`
	EnviadoEm time.Time `json:"enviadoEm" bson:"enviado_em"`
}

// ItemTimeline is one entry of a process timeline. The Documento flag
// discriminates filed documents from procedural movements: movements carry a
// CNJ movement code and correction permissions, documents carry the unique
// document id, signer and secrecy fields. IDSignatario nil means the document
// is unsigned, which is valid data.
type ItemTimeline struct {
	ID          int64     `json:"id" bson:"id"`
	NumeroOrdem int       `json:"numeroOrdem" bson:"numero_ordem"`
	Titulo      string    `json:"titulo" bson:"titulo"`
	Data        time.Time `json:"data" bson:"data"`
	Documento   bool      `json:"documento" bson:"documento"`

	// Movement fields
	CodigoMovimentoCNJ string `json:"codigoMovimentoCNJ,omitempty" bson:"codigo_movimento_cnj,omitempty"`
	PodeExcluir        bool   `json:"podeExcluir,omitempty" bson:"pode_excluir,omitempty"`
	PodeCorrigir       bool   `json:"podeCorrigir,omitempty" bson:"pode_corrigir,omitempty"`

	// Document fields
	IDUnicoDocumento string `json:"idUnicoDocumento,omitempty" bson:"id_unico_documento,omitempty"`
	TipoConteudo     string `json:"tipoConteudo,omitempty" bson:"tipo_conteudo,omitempty"`
	IDSignatario     *int64 `json:"idSignatario,omitempty" bson:"id_signatario,omitempty"`
	Sigiloso         bool   `json:"sigiloso,omitempty" bson:"sigiloso,omitempty"`
	Ponderavel       bool   `json:"ponderavel,omitempty" bson:"ponderavel,omitempty"`

	Arquivo      *ArquivoArmazenado `json:"arquivo,omitempty" bson:"arquivo,omitempty"`
	ErroDownload string             `json:"erroDownload,omitempty" bson:"erro_download,omitempty"`
}

// Assinado reports whether a document item carries a signer.
func (i *ItemTimeline) Assinado() bool {
	return i.Documento && i.IDSignatario != nil
}

// Timeline is the document-store aggregate for one (numero, tribunal, grau)
// triple. Recapture fully replaces the aggregate; there is never more than one
// per triple.
type Timeline struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	NumeroProcesso       string             `json:"numeroProcesso" bson:"numero_processo"`
	Tribunal             int                `json:"tribunal" bson:"tribunal"`
	Grau                 Grau               `json:"grau" bson:"grau"`
	SchemaVersion        int                `json:"schemaVersion" bson:"schema_version"`
	CapturadoEm          time.Time          `json:"capturadoEm" bson:"capturado_em"`
	TotalItens           int                `json:"totalItens" bson:"total_itens"`
	TotalDocumentos      int                `json:"totalDocumentos" bson:"total_documentos"`
	TotalMovimentos      int                `json:"totalMovimentos" bson:"total_movimentos"`
	TotalBaixadosSucesso int                `json:"totalBaixadosSucesso" bson:"total_baixados_sucesso"`
	Itens                []ItemTimeline     `json:"itens" bson:"itens"`
}
