package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/google/uuid"
)

func TestRouteRecordRepositoryMemory(t *testing.T) {
	repo := NewRouteRecordRepository(0)
	ctx := context.Background()
	delivery := uuid.New()

	buffered := &domain.RouteRecord{DeliveryID: delivery, Source: "link", Kind: "scan_url", Outcome: domain.OutcomeBuffered}
	if err := repo.Create(ctx, buffered); err != nil {
		t.Fatalf("create: %v", err)
	}
	if buffered.ID == uuid.Nil || buffered.CreatedAt.IsZero() {
		t.Fatalf("expected meta populated")
	}
	delivered := &domain.RouteRecord{DeliveryID: delivery, Source: "link", Kind: "scan_url", Outcome: domain.OutcomeDelivered}
	_ = repo.Create(ctx, delivered)
	_ = repo.Create(ctx, &domain.RouteRecord{DeliveryID: uuid.New(), Source: "notification", Kind: "navigate_named", Outcome: domain.OutcomeDelivered})

	got, err := repo.ListByDelivery(ctx, delivery)
	if err != nil {
		t.Fatalf("list by delivery: %v", err)
	}
	if len(got) != 2 || got[0].Outcome != domain.OutcomeBuffered || got[1].Outcome != domain.OutcomeDelivered {
		t.Fatalf("unexpected delivery history %+v", got)
	}

	byKind, _ := repo.ListByKind(ctx, "navigate_named", store.ListOptions{})
	if byKind.Total != 1 {
		t.Fatalf("expected 1 navigate record, got %d", byKind.Total)
	}

	page, _ := repo.List(ctx, store.ListOptions{Limit: 2, Offset: 1})
	if page.Total != 3 || len(page.Items) != 2 {
		t.Fatalf("unexpected page %d/%d", len(page.Items), page.Total)
	}

	if err := repo.SoftDelete(ctx, buffered.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, buffered.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	all, _ := repo.List(ctx, store.ListOptions{IncludeSoftDeleted: true})
	if all.Total != 3 {
		t.Fatalf("expected deleted record still listed on request")
	}
}

func TestRouteRecordRepositoryRetention(t *testing.T) {
	repo := NewRouteRecordRepository(2)
	ctx := context.Background()
	var first uuid.UUID
	for i := 0; i < 3; i++ {
		rec := &domain.RouteRecord{DeliveryID: uuid.New(), Source: "link", Kind: "scan_url", Outcome: domain.OutcomeDelivered}
		_ = repo.Create(ctx, rec)
		if i == 0 {
			first = rec.ID
		}
	}
	list, _ := repo.List(ctx, store.ListOptions{})
	if list.Total != 2 {
		t.Fatalf("expected retention of 2, got %d", list.Total)
	}
	if _, err := repo.GetByID(ctx, first); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected oldest discarded")
	}
}

func TestRouteRecordRepositoryUpdateAndRange(t *testing.T) {
	repo := NewRouteRecordRepository(0)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour).UTC()
	rec := &domain.RouteRecord{RecordMeta: domain.RecordMeta{CreatedAt: past}, DeliveryID: uuid.New(), Source: "link", Kind: "scan_url", Outcome: domain.OutcomeDispatched}
	_ = repo.Create(ctx, rec)

	rec.Outcome = domain.OutcomeDelivered
	if err := repo.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.GetByID(ctx, rec.ID)
	if got.Outcome != domain.OutcomeDelivered {
		t.Fatalf("expected updated outcome")
	}

	recent, _ := repo.List(ctx, store.ListOptions{Since: time.Now().Add(-time.Minute)})
	if recent.Total != 0 {
		t.Fatalf("expected record outside range")
	}
	if err := repo.Update(ctx, &domain.RouteRecord{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unsaved record, got %v", err)
	}
}
