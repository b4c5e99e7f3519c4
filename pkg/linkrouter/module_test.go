package linkrouter

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-linkrouter/pkg/commands"
	"github.com/goliatone/go-linkrouter/pkg/config"
	"github.com/goliatone/go-linkrouter/pkg/handlers"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/goliatone/go-linkrouter/pkg/router"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/goliatone/go-linkrouter/pkg/storage"
)

type navCall struct {
	screen string
	params map[string]any
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) Navigate(_ context.Context, screen string, params map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navCall{screen: screen, params: params})
	return nil
}

func (n *recordingNavigator) snapshot() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

func TestModuleConstruction(t *testing.T) {
	ctx := context.Background()
	nav := &recordingNavigator{}
	module, err := NewModule(ctx, ModuleOptions{
		Logger:    &logger.Nop{},
		Navigator: nav,
		Storage:   storage.NewMemoryProviders(10),
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if module.Router() == nil || module.Registry() == nil {
		t.Fatalf("expected router and registry")
	}
	if module.Commands() == nil || len(module.Commands().Commanders()) != 4 {
		t.Fatalf("expected commands registry")
	}
	if module.LinkFeed() == nil || module.NotificationFeed() == nil {
		t.Fatalf("expected in-process feeds without platforms")
	}
	if module.Router().State() != router.StateUninitialized {
		t.Fatalf("expected uninitialized router, got %s", module.Router().State())
	}
}

func TestModuleRoutesEndToEnd(t *testing.T) {
	ctx := context.Background()
	nav := &recordingNavigator{}
	module, err := NewModule(ctx, ModuleOptions{
		Navigator: nav,
		Verifier:  handlers.VerifierFunc(func(context.Context, string) error { return nil }),
	})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	defer module.Close()

	module.LinkFeed().SetInitial("bookyolo://verify-email?token=secret")
	if err := module.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	module.Router().Wait()

	module.LinkFeed().Open("https://www.airbnb.com/rooms/42")
	module.NotificationFeed().Tap(sources.BuildResponse("n-1", "Offer", "", map[string]any{"type": "referral_reward"}))

	receipt := &commands.Receipt{}
	if err := module.Commands().DeliverLink.Execute(ctx, commands.DeliverLink{URL: "bookyolo://signup?ref=FRIEND", Result: receipt}); err != nil {
		t.Fatalf("deliver link: %v", err)
	}
	if receipt.Outcome != router.OutcomeDelivered {
		t.Fatalf("expected delivered, got %s", receipt.Outcome)
	}

	calls := nav.snapshot()
	want := []string{"Login", "Scan", "Referral", "Signup"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d navigations, got %+v", len(want), calls)
	}
	for i, screen := range want {
		if calls[i].screen != screen {
			t.Fatalf("navigation %d: expected %s, got %s", i, screen, calls[i].screen)
		}
	}
	if calls[0].params[handlers.ParamVerified] != true {
		t.Fatalf("expected verified login, got %+v", calls[0].params)
	}

	res, err := module.History().List(ctx, store.ListOptions{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// verification records both dispatch and completion
	if res.Total != 5 {
		t.Fatalf("expected 5 history records, got %d", res.Total)
	}
}

func TestModuleSQLiteHistory(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.Persistence.Driver = config.DriverSQLite
	cfg.Persistence.DSN = "file:" + filepath.Join(t.TempDir(), "history.db")

	module, err := NewModule(ctx, ModuleOptions{Config: cfg, Navigator: &recordingNavigator{}})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	defer module.Close()
	if err := module.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	module.LinkFeed().Open("bookyolo://scan?url=https%3A%2F%2Fbooking.com%2Fhotel")
	res, err := module.History().ListByKind(ctx, "scan_url", store.ListOptions{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if res.Total != 1 || res.Items[0].Outcome != "delivered" {
		t.Fatalf("unexpected history %+v", res)
	}
}
