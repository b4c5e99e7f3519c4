package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/google/uuid"
)

// baseMemoryRepo keeps records in a map. When retain is positive the oldest
// records are discarded once the map grows past it.
type baseMemoryRepo[T any] struct {
	mu      sync.RWMutex
	records map[uuid.UUID]T
	order   []uuid.UUID
	retain  int
	extract func(*T) *domain.RecordMeta
}

func newBaseMemoryRepo[T any](retain int, extract func(*T) *domain.RecordMeta) *baseMemoryRepo[T] {
	return &baseMemoryRepo[T]{
		records: make(map[uuid.UUID]T),
		retain:  retain,
		extract: extract,
	}
}

func (r *baseMemoryRepo[T]) create(_ context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := r.extract(record)
	meta.EnsureID()
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now
	if _, exists := r.records[meta.ID]; !exists {
		r.order = append(r.order, meta.ID)
	}
	r.records[meta.ID] = *record

	for r.retain > 0 && len(r.order) > r.retain {
		delete(r.records, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *baseMemoryRepo[T]) update(_ context.Context, record *T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := r.extract(record)
	if _, ok := r.records[meta.ID]; meta.ID == uuid.Nil || !ok {
		return store.ErrNotFound
	}
	meta.UpdatedAt = time.Now().UTC()
	r.records[meta.ID] = *record
	return nil
}

func (r *baseMemoryRepo[T]) getByID(_ context.Context, id uuid.UUID, includeDeleted bool) (*T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok || (!includeDeleted && !r.extract(&record).DeletedAt.IsZero()) {
		return nil, store.ErrNotFound
	}
	return &record, nil
}

// list filters with opts and the optional match predicate, oldest first.
func (r *baseMemoryRepo[T]) list(_ context.Context, opts store.ListOptions, match func(*T) bool) store.ListResult[T] {
	r.mu.RLock()
	filtered := make([]T, 0, len(r.records))
	for _, id := range r.order {
		record := r.records[id]
		meta := r.extract(&record)
		switch {
		case !opts.IncludeSoftDeleted && !meta.DeletedAt.IsZero():
			continue
		case !opts.Since.IsZero() && meta.CreatedAt.Before(opts.Since):
			continue
		case !opts.Until.IsZero() && meta.CreatedAt.After(opts.Until):
			continue
		case match != nil && !match(&record):
			continue
		}
		filtered = append(filtered, record)
	}
	r.mu.RUnlock()

	// insertion order already breaks ties between equal timestamps
	sort.SliceStable(filtered, func(i, j int) bool {
		return r.extract(&filtered[i]).CreatedAt.Before(r.extract(&filtered[j]).CreatedAt)
	})

	total := len(filtered)
	start := min(opts.Offset, total)
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}
	return store.ListResult[T]{Items: filtered[start:end], Total: total}
}

func (r *baseMemoryRepo[T]) softDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return store.ErrNotFound
	}
	if meta := r.extract(&record); meta.DeletedAt.IsZero() {
		meta.DeletedAt = time.Now().UTC()
	}
	r.records[id] = record
	return nil
}
