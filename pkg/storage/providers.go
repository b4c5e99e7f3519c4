package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bunrepo "github.com/goliatone/go-linkrouter/internal/storage/bun"
	"github.com/goliatone/go-linkrouter/internal/storage/memory"
	"github.com/goliatone/go-linkrouter/pkg/domain"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Providers exposes the repositories the router writes to.
type Providers struct {
	Routes      store.RouteRecordRepository
	Transaction store.TransactionManager
	closer      func() error
}

// Close releases the underlying database, if any.
func (p Providers) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

type Option func(*Providers)

// WithRoutes replaces the route history repository.
func WithRoutes(repo store.RouteRecordRepository) Option {
	return func(p *Providers) {
		if repo != nil {
			p.Routes = repo
		}
	}
}

// NewMemoryProviders returns repositories backed by in-memory maps keeping at
// most retain history records.
func NewMemoryProviders(retain int, opts ...Option) Providers {
	providers := Providers{
		Routes:      memory.NewRouteRecordRepository(retain),
		Transaction: &store.NopTransactionManager{},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// NewBunProviders wires Bun-backed repositories using go-repository-bun.
// The caller owns the *bun.DB lifecycle.
func NewBunProviders(db *bun.DB, opts ...Option) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel((*domain.RouteRecord)(nil))

	providers := Providers{
		Routes:      bunrepo.NewRouteRecordRepository(db),
		Transaction: &bunTxManager{db: db},
	}
	for _, opt := range opts {
		opt(&providers)
	}
	return providers
}

// OpenSQLite opens dsn, creates the history schema and returns Bun-backed
// providers that close the database on Close.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (Providers, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	if err := ensureSQLiteDir(dsn); err != nil {
		return Providers{}, fmt.Errorf("storage: prepare sqlite dir: %w", err)
	}
	sqldb, err := sql.Open(sqliteshim.DriverName(), dsn)
	if err != nil {
		return Providers{}, fmt.Errorf("storage: open sqlite: %w", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return Providers{}, err
	}
	providers := NewBunProviders(db, opts...)
	providers.closer = db.Close
	return providers, nil
}

// EnsureSchema creates the history table when missing.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	models := []any{(*domain.RouteRecord)(nil)}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table for %T: %w", model, err)
		}
	}
	return nil
}

func ensureSQLiteDir(dsn string) error {
	if !strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

type bunTxManager struct {
	db *bun.DB
}

func (m *bunTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx)
	})
}
