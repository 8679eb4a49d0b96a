package pje

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPager() *Pager {
	return NewPager(100, time.Millisecond)
}

func TestDrainPagesConcatenatesAllPagesInOrder(t *testing.T) {
	pages := map[int]*Page[int]{
		1: {Itens: seq(1, 100), QtdPaginas: 3},
		2: {Itens: seq(101, 200)},
		3: {Itens: seq(201, 210)},
	}

	calls := 0
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[int], error) {
		calls++
		assert.Equal(t, 100, tamanho)
		return pages[pagina], nil
	}

	itens, err := DrainPages(context.Background(), newTestPager(), fetch)
	require.NoError(t, err)

	assert.Len(t, itens, 210)
	assert.Equal(t, 3, calls)
	assert.Equal(t, seq(1, 210), itens)
}

func TestDrainPagesZeroPageCountMeansSinglePage(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[string], error) {
		calls++
		return &Page[string]{Itens: []string{"x", "y"}, QtdPaginas: 0}, nil
	}

	itens, err := DrainPages(context.Background(), newTestPager(), fetch)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, itens)
	assert.Equal(t, 1, calls)
}

func TestDrainPagesEmptyFirstPageMeansNoResults(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[string], error) {
		calls++
		return &Page[string]{Itens: []string{}, QtdPaginas: 0}, nil
	}

	itens, err := DrainPages(context.Background(), newTestPager(), fetch)
	require.NoError(t, err)

	assert.Empty(t, itens)
	assert.Equal(t, 1, calls)
}

func TestDrainPagesMalformedLaterPageIsFatal(t *testing.T) {
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[int], error) {
		if pagina == 1 {
			return &Page[int]{Itens: seq(1, 100), QtdPaginas: 3}, nil
		}
		return &Page[int]{Itens: nil}, nil
	}

	_, err := DrainPages(context.Background(), newTestPager(), fetch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaginaMalformada)
}

func TestDrainPagesFetchErrorPropagatesUnmodified(t *testing.T) {
	boom := errors.New("connection reset")
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[int], error) {
		if pagina == 2 {
			return nil, boom
		}
		return &Page[int]{Itens: seq(1, 100), QtdPaginas: 2}, nil
	}

	_, err := DrainPages(context.Background(), newTestPager(), fetch)
	assert.ErrorIs(t, err, boom)
}

func TestDrainPagesHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[int], error) {
		cancel()
		return &Page[int]{Itens: seq(1, 100), QtdPaginas: 5}, nil
	}

	_, err := DrainPages(ctx, NewPager(100, time.Hour), fetch)
	assert.ErrorIs(t, err, context.Canceled)
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func ExampleDrainPages() {
	fetch := func(ctx context.Context, pagina, tamanho int) (*Page[string], error) {
		if pagina == 1 {
			return &Page[string]{Itens: []string{"a", "b"}, QtdPaginas: 2}, nil
		}
		return &Page[string]{Itens: []string{"c"}}, nil
	}
	itens, _ := DrainPages(context.Background(), NewPager(2, time.Millisecond), fetch)
	fmt.Println(itens)
	// Output: [a b c]
}
