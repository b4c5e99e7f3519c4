// Package resolver maps raw link and notification events to intents. It has
// no side effects: the same event always yields the same intent.
package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/routes"
)

const (
	// DefaultScheme is the app's custom URI scheme.
	DefaultScheme = "bookyolo"

	paramRef   = "ref"
	paramToken = "token"
	paramURL   = "url"
	fieldType  = "type"
)

// DefaultListingDomains are hostname fragments of listing sites whose URLs
// are scanned directly.
var DefaultListingDomains = []string{
	"airbnb.",
	"booking.com",
	"vrbo.com",
	"expedia.",
	"hotels.com",
	"agoda.com",
	"tripadvisor.",
}

// Options configure a Resolver.
type Options struct {
	Scheme         string
	ListingDomains []string
	Routes         *routes.Table
}

// Resolver is safe for concurrent use; it holds only immutable state.
type Resolver struct {
	scheme  string
	domains []string
	routes  *routes.Table
}

// New builds a resolver, filling unset options with the defaults.
func New(opts Options) *Resolver {
	scheme := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(opts.Scheme), ":"))
	if scheme == "" {
		scheme = DefaultScheme
	}
	domains := make([]string, 0, len(opts.ListingDomains))
	for _, d := range opts.ListingDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		domains = append(domains, DefaultListingDomains...)
	}
	table := opts.Routes
	if table == nil {
		table = routes.MustBuild(nil, "")
	}
	return &Resolver{scheme: scheme, domains: domains, routes: table}
}

// Resolve maps any raw event to an intent. It never fails; events that match
// no rule become intents.Unrecognized.
func (r *Resolver) Resolve(raw intents.RawEvent) intents.Intent {
	switch ev := raw.(type) {
	case intents.LinkEvent:
		in := r.ResolveURL(ev.URL)
		if u, ok := in.(intents.Unrecognized); ok {
			u.Original = ev
			return u
		}
		return in
	case intents.NotificationEvent:
		return r.ResolveNotification(ev.Payload)
	default:
		return intents.Unrecognized{Original: raw}
	}
}

// ResolveURL applies the link rules in precedence order: referral signup,
// email verification, custom-scheme scan, listing URL, then the raw
// http(s) fallback for strings that do not parse.
func (r *Resolver) ResolveURL(raw string) intents.Intent {
	raw = strings.TrimSpace(raw)
	unrecognized := intents.Unrecognized{Original: intents.LinkEvent{URL: raw}}
	if raw == "" {
		return unrecognized
	}

	u, err := url.Parse(raw)
	if err != nil {
		if hasHTTPPrefix(raw) {
			return intents.ScanURL{TargetURL: raw}
		}
		return unrecognized
	}

	scheme := strings.ToLower(u.Scheme)
	path := routePath(u, scheme)
	query := u.Query()

	if strings.Contains(path, "/signup") {
		if ref := strings.TrimSpace(query.Get(paramRef)); ref != "" {
			return intents.SignupWithReferral{ReferralCode: ref}
		}
	}

	if strings.Contains(path, "/verify-email") || (query.Has(paramToken) && strings.Contains(path, "/verify")) {
		if token := strings.TrimSpace(query.Get(paramToken)); token != "" {
			return intents.VerifyEmail{Token: token}
		}
		return unrecognized
	}

	if scheme == r.scheme && (query.Has(paramURL) || strings.Contains(path, "/scan")) {
		if target := strings.TrimSpace(query.Get(paramURL)); target != "" {
			return intents.ScanURL{TargetURL: target}
		}
		return unrecognized
	}

	if scheme == "http" || scheme == "https" {
		if r.isListingHost(u.Hostname()) || strings.Contains(u.Path, "/rooms/") || strings.Contains(u.Path, "/l/") {
			return intents.ScanURL{TargetURL: raw}
		}
	}

	return unrecognized
}

// ResolveNotification maps a notification data payload to a NavigateNamed
// intent. Unknown or missing types go to the default screen.
func (r *Resolver) ResolveNotification(data map[string]any) intents.Intent {
	fallback := intents.NavigateNamed{Screen: r.routes.Default()}
	typ := stringField(data, fieldType)
	if typ == "" {
		return fallback
	}
	route, ok := r.routes.Lookup(typ)
	if !ok {
		return fallback
	}
	if route.Require != "" && stringField(data, route.Require) == "" {
		screen := route.Fallback
		if screen == "" {
			screen = r.routes.Default()
		}
		return intents.NavigateNamed{Screen: screen}
	}

	var params map[string]any
	for _, key := range route.Params {
		value, ok := data[key]
		if !ok || value == nil {
			continue
		}
		if params == nil {
			params = make(map[string]any, len(route.Params))
		}
		params[key] = value
	}
	return intents.NavigateNamed{Screen: route.Screen, Params: params}
}

func (r *Resolver) isListingHost(host string) bool {
	host = strings.ToLower(host)
	if host == "" {
		return false
	}
	for _, d := range r.domains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// routePath is the path matched by the substring rules. Custom-scheme links
// carry their route in the host slot (bookyolo://signup), so it is folded
// back into the path.
func routePath(u *url.URL, scheme string) string {
	if scheme == "http" || scheme == "https" || u.Host == "" {
		if u.Opaque != "" {
			return "/" + strings.TrimPrefix(u.Opaque, "/")
		}
		return u.Path
	}
	return "/" + u.Host + u.Path
}

func hasHTTPPrefix(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
