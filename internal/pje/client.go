package pje

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mfbarbosa/acervo/internal/model"
)

// ErrPaginaMalformada marks an upstream page that violated the pagination
// contract mid-drain.
var ErrPaginaMalformada = errors.New("malformed upstream page")

// Client is the authenticated session facade over the PJE/TRT deployments.
// Each of the 24 tribunals runs an independent copy of the same API; the
// tribunal number selects the host and a per-tribunal circuit breaker guards
// the calls. Credentials are passed per call, never stored on the client.
type Client struct {
	http            *resty.Client
	baseURLTemplate string
	breakers        *breakerSet
}

// NewClient creates a PJE client. Transient failures (network errors and
// 5xx/429 responses) are retried here with backoff — the pager above this
// client deliberately performs no retries of its own.
func NewClient(baseURLTemplate string, timeout time.Duration) *Client {
	http := resty.New().
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == 429
		})

	return &Client{
		http:            http,
		baseURLTemplate: baseURLTemplate,
		breakers:        newBreakerSet(),
	}
}

func (c *Client) baseURL(tribunal int, grau model.Grau) string {
	return fmt.Sprintf(c.baseURLTemplate, tribunal) + "/pje-consulta-api/api/" + grau.Path()
}

// guard runs fn under the tribunal's circuit breaker.
func (c *Client) guard(tribunal int, fn func() error) error {
	cb := c.breakers.forTribunal(tribunal)
	if !cb.CanAttempt() {
		return fmt.Errorf("trt%d: %w", tribunal, ErrTribunalIndisponivel)
	}
	if err := fn(); err != nil {
		cb.RecordFailure()
		return err
	}
	cb.RecordSuccess()
	return nil
}

// FetchAcervoPage fetches one page of the attorney's acervo listing.
func (c *Client) FetchAcervoPage(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, pagina, tamanhoPagina int) (*Page[ProcessoAcervo], error) {
	var page Page[ProcessoAcervo]

	err := c.guard(tribunal, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(cred.Token).
			SetQueryParams(map[string]string{
				"idAdvogado":    fmt.Sprintf("%d", cred.AdvogadoID),
				"pagina":        fmt.Sprintf("%d", pagina),
				"tamanhoPagina": fmt.Sprintf("%d", tamanhoPagina),
			}).
			SetResult(&page).
			Get(c.baseURL(tribunal, grau) + "/processos/acervo")
		if err != nil {
			return fmt.Errorf("trt%d acervo page %d: %w", tribunal, pagina, err)
		}
		if resp.IsError() {
			return fmt.Errorf("trt%d acervo page %d: upstream returned %s", tribunal, pagina, resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Fetched acervo page",
		"tribunal", tribunal,
		"grau", grau.Path(),
		"pagina", pagina,
		"itens", len(page.Itens),
		"qtd_paginas", page.QtdPaginas,
	)

	return &page, nil
}

// FetchTimeline fetches and decodes the full timeline of one process.
func (c *Client) FetchTimeline(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, idPje int64) ([]model.ItemTimeline, error) {
	var raw []json.RawMessage

	err := c.guard(tribunal, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(cred.Token).
			SetResult(&raw).
			Get(fmt.Sprintf("%s/processos/%d/timeline", c.baseURL(tribunal, grau), idPje))
		if err != nil {
			return fmt.Errorf("trt%d timeline of %d: %w", tribunal, idPje, err)
		}
		if resp.IsError() {
			return fmt.Errorf("trt%d timeline of %d: upstream returned %s", tribunal, idPje, resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	itens, err := DecodeItens(raw)
	if err != nil {
		return nil, fmt.Errorf("trt%d timeline of %d: %w", tribunal, idPje, err)
	}

	slog.Debug("Fetched timeline",
		"tribunal", tribunal,
		"grau", grau.Path(),
		"id_pje", idPje,
		"itens", len(itens),
	)

	return itens, nil
}

// FetchDocumento downloads the binary of one filed document.
func (c *Client) FetchDocumento(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, idPje int64, item model.ItemTimeline) (*DocumentoDetalhe, error) {
	var det DocumentoDetalhe

	err := c.guard(tribunal, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(cred.Token).
			Get(fmt.Sprintf("%s/processos/%d/documentos/%d/conteudo", c.baseURL(tribunal, grau), idPje, item.ID))
		if err != nil {
			return fmt.Errorf("trt%d documento %d: %w", tribunal, item.ID, err)
		}
		if resp.IsError() {
			return fmt.Errorf("trt%d documento %d: upstream returned %s", tribunal, item.ID, resp.Status())
		}
		det = DocumentoDetalhe{
			Conteudo:    resp.Body(),
			ContentType: resp.Header().Get("Content-Type"),
			Nome:        item.Titulo,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &det, nil
}

// DocumentoURL returns the upstream URL a document binary was fetched from,
// recorded on the archived file reference.
func (c *Client) DocumentoURL(tribunal int, grau model.Grau, idPje, itemID int64) string {
	return fmt.Sprintf("%s/processos/%d/documentos/%d/conteudo", c.baseURL(tribunal, grau), idPje, itemID)
}
