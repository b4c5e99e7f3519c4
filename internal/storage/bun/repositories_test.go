package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupSQLiteDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.DriverName(), "file::memory:")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*domain.RouteRecord)(nil)).IfNotExists().Exec(context.Background())
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

func TestRouteRecordRepositoryBun(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewRouteRecordRepository(db)
	ctx := context.Background()
	delivery := uuid.New()

	first := &domain.RouteRecord{
		DeliveryID: delivery,
		Source:     "link",
		Origin:     "initial",
		Kind:       "signup_with_referral",
		Outcome:    domain.OutcomeBuffered,
		Screen:     "Signup",
		ParamKeys:  domain.StringList{"referralCode"},
		Summary:    domain.JSONMap{"referralCode": "AB**23"},
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := &domain.RouteRecord{DeliveryID: delivery, Source: "link", Kind: "signup_with_referral", Outcome: domain.OutcomeDelivered}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := &domain.RouteRecord{DeliveryID: uuid.New(), Source: "notification", Kind: "navigate_named", Outcome: domain.OutcomeDelivered}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Summary["referralCode"] != "AB**23" || len(got.ParamKeys) != 1 {
		t.Fatalf("json columns not round tripped: %+v", got)
	}

	history, err := repo.ListByDelivery(ctx, delivery)
	if err != nil {
		t.Fatalf("list by delivery: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records for delivery, got %d", len(history))
	}

	byKind, err := repo.ListByKind(ctx, "navigate_named", store.ListOptions{})
	if err != nil {
		t.Fatalf("list by kind: %v", err)
	}
	if byKind.Total != 1 {
		t.Fatalf("expected 1 navigate record, got %d", byKind.Total)
	}

	list, err := repo.List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Total != 3 {
		t.Fatalf("expected total 3, got %d", list.Total)
	}

	if err := repo.SoftDelete(ctx, other.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, other.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
