package pagination

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// pagedSource serves fixed pages and records every call.
type pagedSource struct {
	pages  [][]string
	totals []int
	err    error
	errAt  int

	calls []call
}

type call struct {
	limit  int
	offset int
}

func (s *pagedSource) FetchPage(ctx context.Context, limit, offset int) ([]string, int, error) {
	idx := len(s.calls)
	s.calls = append(s.calls, call{limit: limit, offset: offset})

	if s.err != nil && idx == s.errAt {
		return nil, 0, s.err
	}
	if idx >= len(s.pages) {
		return nil, s.totals[len(s.totals)-1], nil
	}
	return s.pages[idx], s.totals[idx], nil
}

func TestWalk_TwoPages(t *testing.T) {
	src := &pagedSource{
		pages:  [][]string{{"A"}, {"B"}},
		totals: []int{2, 2},
	}

	items, err := Walk[string](context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if !reflect.DeepEqual(items, []string{"A", "B"}) {
		t.Errorf("items = %v, want [A B]", items)
	}
	if len(src.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(src.calls))
	}
	if src.calls[1].offset != 1 {
		t.Errorf("second offset = %d, want 1", src.calls[1].offset)
	}
}

func TestWalk_OffsetsFollowCollectedLength(t *testing.T) {
	src := &pagedSource{
		pages:  [][]string{{"a", "b", "c"}, {"d", "e"}, {"f"}},
		totals: []int{6, 6, 6},
	}

	items, err := Walk[string](context.Background(), src, 3)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("len(items) = %d, want 6", len(items))
	}

	want := []call{{3, 0}, {3, 3}, {3, 5}}
	if !reflect.DeepEqual(src.calls, want) {
		t.Errorf("calls = %+v, want %+v", src.calls, want)
	}
}

func TestWalk_EmptyCollection(t *testing.T) {
	src := &pagedSource{
		pages:  [][]string{{}},
		totals: []int{0},
	}

	items, err := Walk[string](context.Background(), src, 10)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", items)
	}
	if len(src.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(src.calls))
	}
}

func TestWalk_FirstTotalIsAuthoritative(t *testing.T) {
	src := &pagedSource{
		pages:  [][]string{{"a"}, {"b"}},
		totals: []int{2, 50},
	}

	items, err := Walk[string](context.Background(), src, 1)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len(items) = %d, want 2", len(items))
	}
	if len(src.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(src.calls))
	}
}

func TestWalk_Inconsistencies(t *testing.T) {
	tests := []struct {
		name     string
		pages    [][]string
		totals   []int
		wantErr  InconsistencyError
		numCalls int
	}{
		{
			name:     "empty page before total",
			pages:    [][]string{{"a"}, {}},
			totals:   []int{3, 3},
			wantErr:  InconsistencyError{Offset: 1, Total: 3, Received: 0},
			numCalls: 2,
		},
		{
			name:     "empty first page with positive total",
			pages:    [][]string{{}},
			totals:   []int{5},
			wantErr:  InconsistencyError{Offset: 0, Total: 5, Received: 0},
			numCalls: 1,
		},
		{
			name:     "more items than total",
			pages:    [][]string{{"a", "b", "c"}},
			totals:   []int{2},
			wantErr:  InconsistencyError{Offset: 0, Total: 2, Received: 3},
			numCalls: 1,
		},
		{
			name:     "items with zero total",
			pages:    [][]string{{"a"}},
			totals:   []int{0},
			wantErr:  InconsistencyError{Offset: 0, Total: 0, Received: 1},
			numCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &pagedSource{pages: tt.pages, totals: tt.totals}

			items, err := Walk[string](context.Background(), src, 2)
			if items != nil {
				t.Errorf("Expected no items on error, got %v", items)
			}
			if !errors.Is(err, ErrInconsistent) {
				t.Fatalf("Expected ErrInconsistent, got %v", err)
			}

			var ie *InconsistencyError
			if !errors.As(err, &ie) {
				t.Fatalf("Expected *InconsistencyError, got %T", err)
			}
			if *ie != tt.wantErr {
				t.Errorf("error = %+v, want %+v", *ie, tt.wantErr)
			}
			if len(src.calls) != tt.numCalls {
				t.Errorf("calls = %d, want %d", len(src.calls), tt.numCalls)
			}
		})
	}
}

func TestWalk_FetcherErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("boom")
	src := &pagedSource{
		pages:  [][]string{{"a"}, {"b"}},
		totals: []int{2, 2},
		err:    boom,
		errAt:  1,
	}

	items, err := Walk[string](context.Background(), src, 1)
	if err != boom {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if items != nil {
		t.Errorf("Expected no partial results, got %v", items)
	}
}

func TestWalk_InvalidLimit(t *testing.T) {
	src := &pagedSource{pages: [][]string{{"a"}}, totals: []int{1}}

	_, err := Walk[string](context.Background(), src, 0)
	if !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("Expected ErrInvalidLimit, got %v", err)
	}
	if len(src.calls) != 0 {
		t.Errorf("Expected no fetches, got %d", len(src.calls))
	}
}

func TestWalk_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := FetcherFunc[int](func(ctx context.Context, limit, offset int) ([]int, int, error) {
		cancel()
		return []int{offset}, 10, nil
	})

	_, err := Walk[int](ctx, fetcher, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFetcherFunc(t *testing.T) {
	var gotLimit, gotOffset int
	f := FetcherFunc[int](func(ctx context.Context, limit, offset int) ([]int, int, error) {
		gotLimit, gotOffset = limit, offset
		return []int{1}, 1, nil
	})

	items, total, err := f.FetchPage(context.Background(), 7, 3)
	if err != nil || total != 1 || len(items) != 1 {
		t.Errorf("FetchPage = %v, %d, %v", items, total, err)
	}
	if gotLimit != 7 || gotOffset != 3 {
		t.Errorf("limit/offset = %d/%d, want 7/3", gotLimit, gotOffset)
	}
}
