package memory

import (
	"context"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/google/uuid"
)

// DefaultRetain bounds the in-memory route history.
const DefaultRetain = 1000

type RouteRecordRepository struct {
	base *baseMemoryRepo[domain.RouteRecord]
}

var _ store.RouteRecordRepository = (*RouteRecordRepository)(nil)

// NewRouteRecordRepository keeps at most retain records; zero or less means
// DefaultRetain.
func NewRouteRecordRepository(retain int) *RouteRecordRepository {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &RouteRecordRepository{
		base: newBaseMemoryRepo(retain, func(r *domain.RouteRecord) *domain.RecordMeta { return &r.RecordMeta }),
	}
}

func (r *RouteRecordRepository) Create(ctx context.Context, record *domain.RouteRecord) error {
	return r.base.create(ctx, record)
}

func (r *RouteRecordRepository) Update(ctx context.Context, record *domain.RouteRecord) error {
	return r.base.update(ctx, record)
}

func (r *RouteRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.RouteRecord, error) {
	return r.base.getByID(ctx, id, false)
}

func (r *RouteRecordRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.RouteRecord], error) {
	return r.base.list(ctx, opts, nil), nil
}

func (r *RouteRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *RouteRecordRepository) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]domain.RouteRecord, error) {
	result := r.base.list(ctx, store.ListOptions{}, func(rec *domain.RouteRecord) bool {
		return rec.DeliveryID == deliveryID
	})
	return result.Items, nil
}

func (r *RouteRecordRepository) ListByKind(ctx context.Context, kind string, opts store.ListOptions) (store.ListResult[domain.RouteRecord], error) {
	return r.base.list(ctx, opts, func(rec *domain.RouteRecord) bool {
		return rec.Kind == kind
	}), nil
}
