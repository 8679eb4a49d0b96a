package model

import "time"

// Credencial is the capability object for one authenticated upstream session.
// Login automation lives outside this service; callers hand in the bearer
// token obtained from it. Lifetime is scoped to one capture call.
type Credencial struct {
	AdvogadoID int64
	Token      string
}

// OpcoesCaptura are the policy flags applied during timeline reconciliation.
// Visibility and archival are independent: filtered-out documents stay in the
// timeline listing, they just skip the binary download.
type OpcoesCaptura struct {
	BaixarDocumentos bool `json:"baixarDocumentos"`
	ApenasAssinados  bool `json:"apenasAssinados"`
	IgnorarSigilosos bool `json:"ignorarSigilosos"`
}

// ResultadoCaptura is the response of a single-instance timeline capture.
type ResultadoCaptura struct {
	TotalItens           int    `json:"totalItens"`
	TotalDocumentos      int    `json:"totalDocumentos"`
	TotalMovimentos      int    `json:"totalMovimentos"`
	TotalBaixadosSucesso int    `json:"totalBaixadosSucesso"`
	MongoID              string `json:"mongoId"`
}

// ResultadoInstancia is one entry of a multi-instance recapture report.
type ResultadoInstancia struct {
	ProcessoID int64  `json:"processoId"`
	Tribunal   int    `json:"tribunal"`
	Grau       Grau   `json:"grau"`
	Status     string `json:"status"` // "ok" | "erro"
	Erro       string `json:"erro,omitempty"`

	TotalItens      int    `json:"totalItens,omitempty"`
	TotalDocumentos int    `json:"totalDocumentos,omitempty"`
	TotalMovimentos int    `json:"totalMovimentos,omitempty"`
	MongoID         string `json:"mongoId,omitempty"`
}

// RelatorioRecaptura aggregates the per-instance results of one
// recapturarTodasInstancias call. Built once per call, never persisted.
type RelatorioRecaptura struct {
	NumeroProcesso string               `json:"numeroProcesso"`
	Resultados     []ResultadoInstancia `json:"resultados"`
	TotalSucesso   int                  `json:"totalSucesso"`
	TotalErro      int                  `json:"totalErro"`
}

// ResultadoAcervo summarizes one acervo listing capture.
type ResultadoAcervo struct {
	Tribunal        int  `json:"tribunal"`
	Grau            Grau `json:"grau"`
	TotalListados   int  `json:"totalListados"`
	TotalNovos      int  `json:"totalNovos"`
	TotalAtualizado int  `json:"totalAtualizados"`
}

// CaptureLock mirrors one row of the capture_locks table. At most one
// non-expired row exists per chave; expired rows are dead and may be reclaimed
// by any acquirer.
type CaptureLock struct {
	Chave    string    `json:"chave"`
	Detentor string    `json:"detentor"`
	ExpiraEm time.Time `json:"expiraEm"`
}
