package bunrepo

import (
	"context"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RouteRecordRepository struct {
	base baseRepository[domain.RouteRecord]
}

var _ store.RouteRecordRepository = (*RouteRecordRepository)(nil)

func NewRouteRecordRepository(db *bun.DB) *RouteRecordRepository {
	handlers := repository.ModelHandlers[*domain.RouteRecord]{
		NewRecord:          func() *domain.RouteRecord { return &domain.RouteRecord{} },
		GetID:              func(r *domain.RouteRecord) uuid.UUID { return r.ID },
		SetID:              func(r *domain.RouteRecord, id uuid.UUID) { r.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(r *domain.RouteRecord) string { return r.ID.String() },
	}
	return &RouteRecordRepository{
		base: newBaseRepository[domain.RouteRecord](db, handlers, func(r *domain.RouteRecord) *domain.RecordMeta { return &r.RecordMeta }),
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
	return r.base.list(ctx, opts)
}

func (r *RouteRecordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.base.softDelete(ctx, id)
}

func (r *RouteRecordRepository) ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]domain.RouteRecord, error) {
	result, err := r.base.list(ctx, store.ListOptions{}, withColumn("delivery_id", deliveryID))
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (r *RouteRecordRepository) ListByKind(ctx context.Context, kind string, opts store.ListOptions) (store.ListResult[domain.RouteRecord], error) {
	return r.base.list(ctx, opts, withColumn("kind", kind))
}
