package redact

import (
	"fmt"
	"net/url"
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

// sensitiveKeys are payload and query keys that never reach logs or history
// unmasked.
var sensitiveKeys = []string{
	"token", "access_token", "refresh_token",
	"ref", "referral_code", "referralCode",
	"code", "secret", "password",
}

func init() {
	for _, field := range sensitiveKeys {
		masker.Default.RegisterMaskField(field, maskRule)
	}
}

// IsSensitive reports whether key names a secret-bearing field.
func IsSensitive(key string) bool {
	for _, k := range sensitiveKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// String masks value, keeping the first and last two characters.
func String(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(maskRule, value); err == nil {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}

// Map returns a shallow copy of values with sensitive keys masked. Nested maps
// are masked recursively.
func Map(values map[string]any) map[string]any {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = Map(typed)
		default:
			if IsSensitive(k) {
				out[k] = String(fmt.Sprint(v))
				continue
			}
			out[k] = v
		}
	}
	return out
}

// URL masks sensitive query parameters. Strings that do not parse are
// returned unchanged.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	query := u.Query()
	changed := false
	for key, vals := range query {
		if !IsSensitive(key) {
			continue
		}
		for i, v := range vals {
			vals[i] = String(v)
		}
		query[key] = vals
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}
