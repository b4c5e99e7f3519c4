package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// Repository defines base CRUD helpers reused by entity-specific interfaces.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context, opts ListOptions) (ListResult[T], error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// RouteRecordRepository stores routing history.
type RouteRecordRepository interface {
	Repository[domain.RouteRecord]
	ListByDelivery(ctx context.Context, deliveryID uuid.UUID) ([]domain.RouteRecord, error)
	ListByKind(ctx context.Context, kind string, opts ListOptions) (ListResult[domain.RouteRecord], error)
}
