package redact

import (
	"strings"
	"testing"
)

func TestStringMasksMiddle(t *testing.T) {
	got := String("abcdef123456")
	if got == "abcdef123456" {
		t.Fatalf("expected value to be masked")
	}
	if !strings.HasPrefix(got, "ab") || !strings.HasSuffix(got, "56") {
		t.Fatalf("expected ends preserved, got %q", got)
	}
	if String("") != "" {
		t.Fatalf("expected empty string to stay empty")
	}
}

func TestMapMasksSensitiveKeys(t *testing.T) {
	in := map[string]any{
		"type":  "welcome",
		"token": "tok-123456789",
		"nested": map[string]any{
			"referralCode": "REF-ABCDEFG",
		},
	}
	out := Map(in)
	if out["type"] != "welcome" {
		t.Fatalf("expected plain key untouched")
	}
	if out["token"] == "tok-123456789" {
		t.Fatalf("expected token masked")
	}
	nested := out["nested"].(map[string]any)
	if nested["referralCode"] == "REF-ABCDEFG" {
		t.Fatalf("expected nested referral masked")
	}
	if in["token"] != "tok-123456789" {
		t.Fatalf("input mutated")
	}
}

func TestURLMasksQuery(t *testing.T) {
	raw := "https://app.example.com/verify-email?token=secret-token-value&lang=en"
	got := URL(raw)
	if strings.Contains(got, "secret-token-value") {
		t.Fatalf("expected token masked in %q", got)
	}
	if !strings.Contains(got, "lang=en") {
		t.Fatalf("expected other params kept in %q", got)
	}
	plain := "https://airbnb.com/rooms/42"
	if URL(plain) != plain {
		t.Fatalf("expected url without query unchanged")
	}
}
