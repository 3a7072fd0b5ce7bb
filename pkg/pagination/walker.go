package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrInconsistent is matched by every *InconsistencyError.
var ErrInconsistent = errors.New("pagination inconsistency")

// ErrInvalidLimit is returned when the page size is not positive.
var ErrInvalidLimit = errors.New("page limit must be positive")

// InconsistencyError reports pages that cannot add up to the announced total.
type InconsistencyError struct {
	// Offset at which the offending page was requested
	Offset int
	// Total announced by the first page
	Total int
	// Received is the number of items the offending page returned
	Received int
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("pagination inconsistency: page at offset %d returned %d items, total is %d",
		e.Offset, e.Received, e.Total)
}

// Is reports whether target is ErrInconsistent.
func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}

// PageFetcher fetches one page and the size of the whole collection.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, limit, offset int) (items []T, total int, err error)
}

// FetcherFunc adapts a function to PageFetcher.
type FetcherFunc[T any] func(ctx context.Context, limit, offset int) ([]T, int, error)

// FetchPage calls f.
func (f FetcherFunc[T]) FetchPage(ctx context.Context, limit, offset int) ([]T, int, error) {
	return f(ctx, limit, offset)
}

// Walk collects every item of the collection, one page at a time.
// Errors from the fetcher are returned unchanged.
func Walk[T any](ctx context.Context, fetcher PageFetcher[T], limit int) ([]T, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidLimit, limit)
	}

	var (
		items = []T{}
		total int
		pages int
	)

	for first := true; first || len(items) < total; first = false {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offset := len(items)
		page, pageTotal, err := fetcher.FetchPage(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		pages++

		if first {
			total = pageTotal
			if total > 0 {
				items = make([]T, 0, min(total, limit))
			}
		} else if pageTotal != total {
			log.Warn().
				Int("offset", offset).
				Int("total", total).
				Int("page_total", pageTotal).
				Msg("Page reported a different total, keeping the first")
		}

		if len(items) < total && (len(page) == 0 || len(items)+len(page) > total) {
			return nil, &InconsistencyError{Offset: offset, Total: total, Received: len(page)}
		}
		if total <= 0 && len(page) > 0 {
			return nil, &InconsistencyError{Offset: offset, Total: total, Received: len(page)}
		}

		items = append(items, page...)

		log.Debug().
			Int("offset", offset).
			Int("received", len(page)).
			Int("collected", len(items)).
			Int("total", total).
			Msg("Page fetched")
	}

	log.Debug().
		Int("pages", pages).
		Int("total", total).
		Msg("Pagination complete")

	return items, nil
}
