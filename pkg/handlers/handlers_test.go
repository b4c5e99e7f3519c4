package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/pkg/intents"
)

type call struct {
	screen string
	params map[string]any
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []call
}

func (n *recordingNavigator) Navigate(_ context.Context, screen string, params map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call{screen: screen, params: params})
	return nil
}

func (n *recordingNavigator) last(t *testing.T) call {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		t.Fatalf("expected a navigation call")
	}
	return n.calls[len(n.calls)-1]
}

func TestHandlersNavigate(t *testing.T) {
	nav := &recordingNavigator{}
	set, err := New(Dependencies{Navigator: nav})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	_ = set.SignupWithReferral(ctx, intents.SignupWithReferral{ReferralCode: "ABC123"})
	if c := nav.last(t); c.screen != "Signup" || c.params[ParamReferralCode] != "ABC123" {
		t.Fatalf("unexpected signup navigation %+v", c)
	}

	_ = set.ScanURL(ctx, intents.ScanURL{TargetURL: "https://airbnb.com/rooms/42"})
	if c := nav.last(t); c.screen != "Scan" || c.params[ParamURL] != "https://airbnb.com/rooms/42" {
		t.Fatalf("unexpected scan navigation %+v", c)
	}

	_ = set.NavigateNamed(ctx, intents.NavigateNamed{Screen: "Upgrade"})
	if c := nav.last(t); c.screen != "Upgrade" || c.params != nil {
		t.Fatalf("unexpected named navigation %+v", c)
	}

	if err := set.ScanURL(ctx, intents.VerifyEmail{}); !errors.Is(err, ErrUnexpectedIntent) {
		t.Fatalf("expected unexpected intent error, got %v", err)
	}
}

func TestVerifyEmailAlwaysLandsOnLogin(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		verifier Verifier
		want     bool
	}{
		{"accepted", VerifierFunc(func(context.Context, string) error { return nil }), true},
		{"rejected", VerifierFunc(func(context.Context, string) error { return errors.New("expired") }), false},
		{"no verifier", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nav := &recordingNavigator{}
			set, _ := New(Dependencies{Navigator: nav, Verifier: tc.verifier, Screens: Screens{Login: "Landing"}})
			if err := set.VerifyEmail(ctx, intents.VerifyEmail{Token: "t"}); err != nil {
				t.Fatalf("verify: %v", err)
			}
			c := nav.last(t)
			if c.screen != "Landing" || c.params[ParamVerified] != tc.want {
				t.Fatalf("unexpected navigation %+v", c)
			}
		})
	}
}

func TestRegisterBindsDefaults(t *testing.T) {
	nav := &recordingNavigator{}
	set, _ := New(Dependencies{Navigator: nav})
	reg := dispatcher.New(dispatcher.Dependencies{})
	ctx := context.Background()
	if err := set.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	for _, kind := range []intents.Kind{intents.KindNavigateNamed, intents.KindSignupWithReferral, intents.KindScanURL, intents.KindVerifyEmail} {
		if !reg.Has(kind) {
			t.Fatalf("expected handler for %s", kind)
		}
	}
	if reg.Has(intents.KindUnrecognized) {
		t.Fatalf("unrecognized must not have a default handler")
	}

	if out := reg.Dispatch(ctx, dispatcher.Delivery{Intent: intents.VerifyEmail{Token: "t"}}); out != dispatcher.OutcomeDispatched {
		t.Fatalf("expected verification to run async, got %s", out)
	}
	reg.Wait()
	if c := nav.last(t); c.screen != "Login" {
		t.Fatalf("expected login navigation, got %+v", c)
	}
}

func TestNewRequiresNavigator(t *testing.T) {
	if _, err := New(Dependencies{}); !errors.Is(err, ErrMissingNavigator) {
		t.Fatalf("expected missing navigator, got %v", err)
	}
}
