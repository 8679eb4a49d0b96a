package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfbarbosa/acervo/internal/model"
	"github.com/mfbarbosa/acervo/internal/pje"
)

type fakeAcervoFetcher struct {
	pages map[int]*pje.Page[pje.ProcessoAcervo]
}

func (f *fakeAcervoFetcher) FetchAcervoPage(ctx context.Context, cred model.Credencial, tribunal int, grau model.Grau, pagina, tamanhoPagina int) (*pje.Page[pje.ProcessoAcervo], error) {
	if page, ok := f.pages[pagina]; ok {
		return page, nil
	}
	return &pje.Page[pje.ProcessoAcervo]{Itens: []pje.ProcessoAcervo{}}, nil
}

type fakeProcessoUpserter struct {
	mu       sync.Mutex
	seen     map[int64]bool
	upserted []string
}

func newFakeProcessoUpserter() *fakeProcessoUpserter {
	return &fakeProcessoUpserter{seen: make(map[int64]bool)}
}

func (u *fakeProcessoUpserter) Upsert(ctx context.Context, p *model.Processo) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.upserted = append(u.upserted, p.Numero)
	if u.seen[p.IDPje] {
		return false, nil
	}
	u.seen[p.IDPje] = true
	return true, nil
}

func listado(id int64) pje.ProcessoAcervo {
	return pje.ProcessoAcervo{
		ID:     id,
		Numero: fmt.Sprintf("%07d-55.2024.5.15.0001", id),
	}
}

func newAcervoService(fetcher AcervoFetcher, upserter ProcessoUpserter) *AcervoService {
	lock := NewCaptureLock(newFakeLockStore(), LockOptions{TTL: time.Minute, PollInterval: time.Millisecond})
	return NewAcervoService(fetcher, upserter, pje.NewPager(100, time.Millisecond), lock)
}

func TestCapturarAcervoDrainsAllPagesAndCounts(t *testing.T) {
	fetcher := &fakeAcervoFetcher{pages: map[int]*pje.Page[pje.ProcessoAcervo]{
		1: {Itens: []pje.ProcessoAcervo{listado(1), listado(2)}, QtdPaginas: 2},
		2: {Itens: []pje.ProcessoAcervo{listado(3)}},
	}}
	upserter := newFakeProcessoUpserter()
	upserter.seen[3] = true // already known from a previous run

	s := newAcervoService(fetcher, upserter)
	resultado, err := s.CapturarAcervo(context.Background(), model.Credencial{AdvogadoID: 3}, 15, model.GrauPrimeiro)
	require.NoError(t, err)

	assert.Equal(t, 3, resultado.TotalListados)
	assert.Equal(t, 2, resultado.TotalNovos)
	assert.Equal(t, 1, resultado.TotalAtualizado)
	assert.Len(t, upserter.upserted, 3)
}

func TestCapturarAcervoRejectsInvalidTarget(t *testing.T) {
	s := newAcervoService(&fakeAcervoFetcher{}, newFakeProcessoUpserter())

	_, err := s.CapturarAcervo(context.Background(), model.Credencial{AdvogadoID: 3}, 25, model.GrauPrimeiro)
	assert.Error(t, err)

	_, err = s.CapturarAcervo(context.Background(), model.Credencial{AdvogadoID: 3}, 15, model.Grau(9))
	assert.Error(t, err)
}

func TestCapturarAcervoSerializedPerTarget(t *testing.T) {
	store := newFakeLockStore()
	lock := NewCaptureLock(store, LockOptions{TTL: time.Minute, PollInterval: time.Millisecond})
	s := NewAcervoService(&fakeAcervoFetcher{}, newFakeProcessoUpserter(), pje.NewPager(100, time.Millisecond), lock)

	cred := model.Credencial{AdvogadoID: 3}
	held, ok, err := lock.Acquire(context.Background(), "acervo:3:trt15:g1")
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Release(context.Background())

	_, err = s.CapturarAcervo(context.Background(), cred, 15, model.GrauPrimeiro)
	assert.ErrorIs(t, err, ErrCapturaEmAndamento)

	// A different tribunal is an independent key.
	_, err = s.CapturarAcervo(context.Background(), cred, 2, model.GrauPrimeiro)
	assert.NoError(t, err)
}

func TestCapturarAcervoSkipsInvalidRows(t *testing.T) {
	fetcher := &fakeAcervoFetcher{pages: map[int]*pje.Page[pje.ProcessoAcervo]{
		1: {Itens: []pje.ProcessoAcervo{
			listado(1),
			{ID: 0, Numero: ""}, // upstream sometimes lists placeholder rows
		}},
	}}
	upserter := newFakeProcessoUpserter()

	s := newAcervoService(fetcher, upserter)
	resultado, err := s.CapturarAcervo(context.Background(), model.Credencial{AdvogadoID: 3}, 15, model.GrauPrimeiro)
	require.NoError(t, err)

	assert.Equal(t, 2, resultado.TotalListados)
	assert.Equal(t, 1, resultado.TotalNovos)
	assert.Len(t, upserter.upserted, 1)
}
