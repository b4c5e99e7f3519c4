package resolver

import (
	"testing"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/routes"
)

func TestResolveURL(t *testing.T) {
	r := New(Options{})

	cases := []struct {
		name string
		raw  string
		want intents.Intent
	}{
		{"referral signup custom scheme", "bookyolo://signup?ref=ABC123", intents.SignupWithReferral{ReferralCode: "ABC123"}},
		{"referral signup web", "https://bookyolo.com/signup?ref=XYZ", intents.SignupWithReferral{ReferralCode: "XYZ"}},
		{"verify email", "https://app.example.com/verify-email?token=xyz", intents.VerifyEmail{Token: "xyz"}},
		{"verify with token", "https://app.example.com/auth/verify?token=abc", intents.VerifyEmail{Token: "abc"}},
		{"verify custom scheme", "bookyolo://verify-email?token=t1", intents.VerifyEmail{Token: "t1"}},
		{"scan share extension", "bookyolo://scan?url=https%3A%2F%2Fairbnb.com%2Frooms%2F42", intents.ScanURL{TargetURL: "https://airbnb.com/rooms/42"}},
		{"scan url param only", "bookyolo://open?url=https%3A%2F%2Fvrbo.com%2F123", intents.ScanURL{TargetURL: "https://vrbo.com/123"}},
		{"listing domain", "https://airbnb.com/rooms/42", intents.ScanURL{TargetURL: "https://airbnb.com/rooms/42"}},
		{"listing subdomain", "https://www.booking.com/hotel/us/x.html", intents.ScanURL{TargetURL: "https://www.booking.com/hotel/us/x.html"}},
		{"rooms path", "https://short.example/rooms/9", intents.ScanURL{TargetURL: "https://short.example/rooms/9"}},
		{"short link path", "http://abnb.me/l/abc", intents.ScanURL{TargetURL: "http://abnb.me/l/abc"}},
		{"listing url kept encoded", "https://airbnb.com/rooms/42?check_in=2024%2D01%2D01", intents.ScanURL{TargetURL: "https://airbnb.com/rooms/42?check_in=2024%2D01%2D01"}},
		{"surrounding whitespace", "  https://airbnb.com/rooms/7  ", intents.ScanURL{TargetURL: "https://airbnb.com/rooms/7"}},
		{"unparseable http fallback", "https://example.com/%zz", intents.ScanURL{TargetURL: "https://example.com/%zz"}},
		{"unparseable host fallback", "https://air bnb.com/rooms/1", intents.ScanURL{TargetURL: "https://air bnb.com/rooms/1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.ResolveURL(tc.raw)
			assertIntent(t, got, tc.want)
		})
	}
}

func TestResolveURLUnrecognized(t *testing.T) {
	r := New(Options{})
	inputs := []string{
		"",
		"   ",
		"not a url at all",
		"bookyolo://signup",
		"bookyolo://signup?ref=",
		"https://app.example.com/verify-email",
		"https://app.example.com/verify-email?token=",
		"bookyolo://scan",
		"bookyolo://scan?url=",
		"https://example.com/about",
		"https://bookyolo.com/reset-password?token=",
		"bookyolo://scan/%zz",
		"mailto:someone@example.com",
		"ftp://airbnb.com/rooms/1",
		"://",
		"%",
	}
	for _, raw := range inputs {
		got := r.ResolveURL(raw)
		if got.Kind() != intents.KindUnrecognized {
			t.Fatalf("%q: expected unrecognized, got %s", raw, intents.Describe(got))
		}
	}
}

func TestResolveURLPrecedence(t *testing.T) {
	r := New(Options{})

	// referral wins over the listing heuristic
	got := r.ResolveURL("https://airbnb.com/signup?ref=R1")
	assertIntent(t, got, intents.SignupWithReferral{ReferralCode: "R1"})

	// verification wins over the custom-scheme scan rule
	got = r.ResolveURL("bookyolo://verify?token=T&url=https%3A%2F%2Fairbnb.com")
	assertIntent(t, got, intents.VerifyEmail{Token: "T"})

	// custom scheme wins over http heuristics on the embedded URL
	got = r.ResolveURL("bookyolo://scan?url=https%3A%2F%2Fexample.com%2Fabout")
	assertIntent(t, got, intents.ScanURL{TargetURL: "https://example.com/about"})

	// signup without ref falls through to later rules
	got = r.ResolveURL("https://airbnb.com/signup")
	assertIntent(t, got, intents.ScanURL{TargetURL: "https://airbnb.com/signup"})
}

func TestResolveURLCustomOptions(t *testing.T) {
	r := New(Options{Scheme: "yolo:", ListingDomains: []string{"staysite.io"}})
	assertIntent(t, r.ResolveURL("yolo://scan?url=https%3A%2F%2Fstaysite.io%2F1"), intents.ScanURL{TargetURL: "https://staysite.io/1"})
	assertIntent(t, r.ResolveURL("https://staysite.io/1"), intents.ScanURL{TargetURL: "https://staysite.io/1"})
	if got := r.ResolveURL("bookyolo://scan?url=x"); got.Kind() != intents.KindUnrecognized {
		t.Fatalf("expected foreign scheme to be unrecognized, got %s", intents.Describe(got))
	}
	if got := r.ResolveURL("https://airbnb.com/help"); got.Kind() != intents.KindUnrecognized {
		t.Fatalf("expected airbnb to be unknown with custom domains, got %s", intents.Describe(got))
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := New(Options{})
	raw := intents.LinkEvent{URL: "bookyolo://signup?ref=ABC123"}
	first := r.Resolve(raw)
	for i := 0; i < 10; i++ {
		assertIntent(t, r.Resolve(raw), first)
	}
}

func TestResolveKeepsOriginalOnUnrecognized(t *testing.T) {
	r := New(Options{})
	raw := intents.LinkEvent{URL: "not a url at all", Origin: intents.OriginInitial}
	got := r.Resolve(raw)
	u, ok := got.(intents.Unrecognized)
	if !ok {
		t.Fatalf("expected unrecognized, got %T", got)
	}
	link, ok := u.Original.(intents.LinkEvent)
	if !ok || link.Origin != intents.OriginInitial || link.URL != raw.URL {
		t.Fatalf("expected original event preserved, got %+v", u.Original)
	}
}

func TestResolveNotification(t *testing.T) {
	r := New(Options{})

	cases := []struct {
		name   string
		data   map[string]any
		screen string
	}{
		{"scan limit", map[string]any{"type": "scan_limit_warning"}, "Upgrade"},
		{"referral reward", map[string]any{"type": "referral_reward"}, "Referral"},
		{"upgrade reminder", map[string]any{"type": "upgrade_reminder"}, "Upgrade"},
		{"daily reminder", map[string]any{"type": "daily_reminder"}, "MainTabs"},
		{"weekly summary", map[string]any{"type": "weekly_summary"}, "MainTabs"},
		{"welcome", map[string]any{"type": "welcome"}, "MainTabs"},
		{"unknown type", map[string]any{"type": "promo_blast"}, "MainTabs"},
		{"missing type", map[string]any{"listingTitle": "x"}, "MainTabs"},
		{"non string type", map[string]any{"type": 42}, "MainTabs"},
		{"nil payload", nil, "MainTabs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.ResolveNotification(tc.data)
			nav, ok := got.(intents.NavigateNamed)
			if !ok {
				t.Fatalf("expected navigate_named, got %T", got)
			}
			if nav.Screen != tc.screen {
				t.Fatalf("expected %s, got %s", tc.screen, nav.Screen)
			}
			if len(nav.Params) != 0 {
				t.Fatalf("expected no params, got %v", nav.Params)
			}
		})
	}
}

func TestResolveNotificationScanComplete(t *testing.T) {
	r := New(Options{})

	got := r.ResolveNotification(map[string]any{
		"type":         "scan_complete",
		"listingTitle": "Loft in Lisbon",
		"score":        87,
		"ignored":      true,
	})
	nav := got.(intents.NavigateNamed)
	if nav.Screen != "ScanResult" {
		t.Fatalf("expected ScanResult, got %s", nav.Screen)
	}
	if nav.Params["listingTitle"] != "Loft in Lisbon" || nav.Params["score"] != 87 {
		t.Fatalf("unexpected params %v", nav.Params)
	}
	if _, ok := nav.Params["ignored"]; ok {
		t.Fatalf("unexpected extra param")
	}

	got = r.ResolveNotification(map[string]any{"type": "scan_complete", "score": 87})
	nav = got.(intents.NavigateNamed)
	if nav.Screen != "MainTabs" || len(nav.Params) != 0 {
		t.Fatalf("expected MainTabs without params, got %+v", nav)
	}

	got = r.ResolveNotification(map[string]any{"type": "scan_complete", "listingTitle": "  "})
	if got.(intents.NavigateNamed).Screen != "MainTabs" {
		t.Fatalf("expected blank title to fall back")
	}
}

func TestResolveNotificationCustomTable(t *testing.T) {
	table := routes.MustBuild(map[string]routes.Route{"trip_digest": {Screen: "Trips"}}, "Home")
	r := New(Options{Routes: table})
	if got := r.ResolveNotification(map[string]any{"type": "trip_digest"}).(intents.NavigateNamed); got.Screen != "Trips" {
		t.Fatalf("expected Trips, got %s", got.Screen)
	}
	if got := r.ResolveNotification(nil).(intents.NavigateNamed); got.Screen != "Home" {
		t.Fatalf("expected Home, got %s", got.Screen)
	}
}

func TestResolveNotificationEventNeverUnrecognized(t *testing.T) {
	r := New(Options{})
	for _, interaction := range []intents.Interaction{intents.InteractionTapped, intents.InteractionDelivered} {
		got := r.Resolve(intents.NotificationEvent{Interaction: interaction})
		if got.Kind() != intents.KindNavigateNamed {
			t.Fatalf("expected navigate_named, got %s", got.Kind())
		}
	}
}

func assertIntent(t *testing.T, got, want intents.Intent) {
	t.Helper()
	if got.Kind() != want.Kind() {
		t.Fatalf("expected %s, got %s", intents.Describe(want), intents.Describe(got))
	}
	switch w := want.(type) {
	case intents.VerifyEmail:
		if g := got.(intents.VerifyEmail); g.Token != w.Token {
			t.Fatalf("expected token %q, got %q", w.Token, g.Token)
		}
	case intents.SignupWithReferral:
		if g := got.(intents.SignupWithReferral); g.ReferralCode != w.ReferralCode {
			t.Fatalf("expected ref %q, got %q", w.ReferralCode, g.ReferralCode)
		}
	case intents.ScanURL:
		if g := got.(intents.ScanURL); g.TargetURL != w.TargetURL {
			t.Fatalf("expected target %q, got %q", w.TargetURL, g.TargetURL)
		}
	case intents.NavigateNamed:
		if g := got.(intents.NavigateNamed); g.Screen != w.Screen {
			t.Fatalf("expected screen %q, got %q", w.Screen, g.Screen)
		}
	}
}
