package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-linkrouter/pkg/activity"
)

func TestSendPostsEvent(t *testing.T) {
	var (
		got  map[string]any
		auth string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, _ := r.BasicAuth()
		auth = user
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := New(nil, WithConfig(Config{URL: srv.URL, BasicAuthUser: "ops", ForwardMetadata: true}))
	err := hook.Send(context.Background(), activity.Event{
		Verb:       activity.VerbPrefix + "delivered",
		DeliveryID: "d-1",
		Kind:       "scan_url",
		Metadata:   map[string]any{"summary": "masked"},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["verb"] != "route.delivered" || got["delivery_id"] != "d-1" || got["kind"] != "scan_url" {
		t.Fatalf("unexpected payload %v", got)
	}
	if _, ok := got["metadata"]; !ok {
		t.Fatalf("expected metadata forwarded")
	}
	if auth != "ops" {
		t.Fatalf("expected basic auth, got %q", auth)
	}
}

func TestSendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := New(nil, WithConfig(Config{URL: srv.URL})).Send(context.Background(), activity.Event{}); err == nil {
		t.Fatalf("expected status error")
	}
	if err := New(nil).Send(context.Background(), activity.Event{}); err == nil {
		t.Fatalf("expected missing url error")
	}
	if err := New(nil, WithConfig(Config{DryRun: true})).Send(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("dry run should not fail: %v", err)
	}
	// Notify swallows the error
	New(nil, WithConfig(Config{URL: srv.URL})).Notify(context.Background(), activity.Event{})
}
