package model

import (
	"errors"
	"fmt"
	"time"
)

// Grau identifies the judicial instance a process record belongs to.
type Grau int

const (
	GrauPrimeiro Grau = 1
	GrauSegundo  Grau = 2
	GrauSuperior Grau = 3
)

// Valid reports whether the grau is one of the known judicial instances.
func (g Grau) Valid() bool {
	return g == GrauPrimeiro || g == GrauSegundo || g == GrauSuperior
}

// Path returns the URL path segment used by the PJE deployments for this grau.
func (g Grau) Path() string {
	switch g {
	case GrauPrimeiro:
		return "primeirograu"
	case GrauSegundo:
		return "segundograu"
	case GrauSuperior:
		return "tst"
	}
	return ""
}

func (g Grau) String() string {
	switch g {
	case GrauPrimeiro:
		return "1º grau"
	case GrauSegundo:
		return "2º grau"
	case GrauSuperior:
		return "superior"
	}
	return fmt.Sprintf("grau(%d)", int(g))
}

// Processo is the relational record of one judicial-instance manifestation of
// a case. The same numero appears once per (tribunal, grau) the case reached.
// TimelineMongoID cross-references the timeline aggregate in the document
// store; it is nil until the first timeline capture succeeds.
type Processo struct {
	ID              int64      `json:"id"`
	Tribunal        int        `json:"tribunal"`
	Grau            Grau       `json:"grau"`
	IDPje           int64      `json:"idPje"`
	Numero          string     `json:"numero"`
	AdvogadoID      int64      `json:"advogadoId"`
	TimelineMongoID *string    `json:"timelineMongoId,omitempty"`
	UltimaCaptura   *time.Time `json:"ultimaCaptura,omitempty"`
	CriadoEm        time.Time  `json:"criadoEm"`
}

// Validate checks the identity fields required before a processo row can be
// inserted or used as a capture target.
func (p *Processo) Validate() error {
	if p.Tribunal < 1 || p.Tribunal > 24 {
		return fmt.Errorf("tribunal must be between 1 and 24, got %d", p.Tribunal)
	}
	if !p.Grau.Valid() {
		return fmt.Errorf("invalid grau: %d", int(p.Grau))
	}
	if p.IDPje <= 0 {
		return errors.New("idPje is required")
	}
	if p.Numero == "" {
		return errors.New("numero is required")
	}
	if p.AdvogadoID <= 0 {
		return errors.New("advogadoId is required")
	}
	return nil
}
