package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/navigation"
	"github.com/goliatone/go-linkrouter/pkg/linkrouter"
	"github.com/goliatone/go-linkrouter/pkg/sources"
)

func newTestServer(t *testing.T, nav navigation.Navigator) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	module, err := linkrouter.NewModule(ctx, linkrouter.ModuleOptions{Navigator: nav})
	if err != nil {
		t.Fatalf("module: %v", err)
	}
	if err := module.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(newRouter(&server{module: module, logger: &logger.Nop{}}))
	t.Cleanup(func() {
		srv.Close()
		_ = module.Close()
	})
	return srv
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestDeliverLinkEndpoint(t *testing.T) {
	var screens []string
	srv := newTestServer(t, navigation.Func(func(_ context.Context, screen string, _ map[string]any) error {
		screens = append(screens, screen)
		return nil
	}))

	resp, err := http.Post(srv.URL+"/links", "application/json", strings.NewReader(`{"url":"bookyolo://signup?ref=ABC"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["outcome"] != "delivered" {
		t.Fatalf("unexpected body %v", body)
	}
	if len(screens) != 1 || screens[0] != "Signup" {
		t.Fatalf("unexpected navigation %v", screens)
	}

	resp, err = http.Get(srv.URL + "/history?kind=signup_with_referral")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	body := decode(t, resp)
	if body["total"] != float64(1) {
		t.Fatalf("expected one history record, got %v", body)
	}
}

func TestDeliverNotificationEndpoint(t *testing.T) {
	var screens []string
	srv := newTestServer(t, navigation.Func(func(_ context.Context, screen string, _ map[string]any) error {
		screens = append(screens, screen)
		return nil
	}))

	payload, _ := json.Marshal(sources.BuildResponse("n-1", "Upgrade", "", map[string]any{"type": "upgrade_reminder"}))
	resp, err := http.Post(srv.URL+"/notifications/delivered", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if body := decode(t, resp); body["outcome"] != "observed" {
		t.Fatalf("expected observed, got %v", body)
	}

	resp, err = http.Post(srv.URL+"/notifications/tapped", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if body := decode(t, resp); body["outcome"] != "delivered" {
		t.Fatalf("expected delivered, got %v", body)
	}
	if len(screens) != 1 || screens[0] != "Upgrade" {
		t.Fatalf("expected only the tap to navigate, got %v", screens)
	}

	resp, err = http.Post(srv.URL+"/notifications/swiped", "application/json", strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown interaction, got %d", resp.StatusCode)
	}
}

func TestStateAndValidation(t *testing.T) {
	srv := newTestServer(t, &navigation.Nop{})

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if body := decode(t, resp); body["state"] != "active" {
		t.Fatalf("expected active state, got %v", body)
	}

	for _, path := range []string{"/history?kind=bogus", "/history/not-a-uuid"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.StatusCode)
		}
	}
}
