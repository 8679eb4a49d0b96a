package pje

import (
	"context"
	"fmt"
	"time"
)

// FetchPageFunc fetches one page of an upstream listing.
type FetchPageFunc[T any] func(ctx context.Context, pagina, tamanhoPagina int) (*Page[T], error)

// Pager drains a page-numbered upstream collection into a single in-memory
// sequence, sleeping between requests to respect the tribunal rate limits.
// The page size is fixed at construction so one capture cannot multiply the
// request count against the upstream. Fetch errors propagate unmodified;
// retry policy belongs to the HTTP client underneath the fetch func.
type Pager struct {
	tamanhoPagina int
	delay         time.Duration
}

// NewPager creates a pager with a fixed page size and inter-page delay.
func NewPager(tamanhoPagina int, delay time.Duration) *Pager {
	return &Pager{tamanhoPagina: tamanhoPagina, delay: delay}
}

// DrainPages fetches every page of a listing and returns the concatenated
// items in upstream order.
//
// The PJE deployments report qtdPaginas == 0 to mean "exactly one page"
// whenever there is at least one result, so a zero page count is never
// treated as an error; only an empty first page means "no results". A page
// after the first arriving without an item array is a contract violation and
// fails the whole drain — a truncated result would corrupt downstream counts.
func DrainPages[T any](ctx context.Context, p *Pager, fetch FetchPageFunc[T]) ([]T, error) {
	first, err := fetch(ctx, 1, p.tamanhoPagina)
	if err != nil {
		return nil, err
	}
	if first == nil || len(first.Itens) == 0 {
		return []T{}, nil
	}

	total := first.QtdPaginas
	if total < 1 {
		total = 1
	}

	itens := make([]T, 0, len(first.Itens)*total)
	itens = append(itens, first.Itens...)

	for pagina := 2; pagina <= total; pagina++ {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		page, err := fetch(ctx, pagina, p.tamanhoPagina)
		if err != nil {
			return nil, err
		}
		if page == nil || page.Itens == nil {
			return nil, fmt.Errorf("page %d of %d returned no item array: %w", pagina, total, ErrPaginaMalformada)
		}
		itens = append(itens, page.Itens...)
	}

	return itens, nil
}
