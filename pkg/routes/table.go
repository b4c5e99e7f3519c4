// Package routes holds the notification type to screen table. The table is
// assembled from go-options layers so app configuration can override the
// built-in routes without copying them.
package routes

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	opts "github.com/goliatone/go-options"
	layering "github.com/goliatone/go-options/layering"
)

const (
	// DefaultScreen is where unknown or untyped notifications land.
	DefaultScreen = "MainTabs"

	defaultScreenKey = "default_screen"

	scopeSystem = "system"
	scopeApp    = "app"
)

// Route maps one notification type to a screen.
type Route struct {
	Screen string
	// Params lists payload keys copied into the navigation params.
	Params []string
	// Require names a payload key that must be a non-empty string for Screen
	// to be used; otherwise Fallback applies.
	Require  string
	Fallback string
}

// Table is an immutable snapshot of the merged layers.
type Table struct {
	defaultScreen string
	routes        map[string]Route
	origins       map[string]string
	options       *opts.Options[map[string]any]
}

var ErrEmptyScreen = errors.New("routes: route screen is required")

// Defaults returns the built-in notification routes.
func Defaults() map[string]Route {
	return map[string]Route{
		"scan_limit_warning": {Screen: "Upgrade"},
		"referral_reward":    {Screen: "Referral"},
		"upgrade_reminder":   {Screen: "Upgrade"},
		"scan_complete": {
			Screen:   "ScanResult",
			Params:   []string{"listingTitle", "score"},
			Require:  "listingTitle",
			Fallback: DefaultScreen,
		},
		"daily_reminder": {Screen: DefaultScreen},
		"weekly_summary": {Screen: DefaultScreen},
		"welcome":        {Screen: DefaultScreen},
	}
}

// Build merges the built-in routes with app overrides. An empty
// defaultScreen keeps DefaultScreen.
func Build(overrides map[string]Route, defaultScreen string) (*Table, error) {
	for typ, route := range overrides {
		if strings.TrimSpace(route.Screen) == "" {
			return nil, fmt.Errorf("routes: %s: %w", typ, ErrEmptyScreen)
		}
	}

	system := encodeLayer(Defaults())
	system[defaultScreenKey] = DefaultScreen

	app := encodeLayer(overrides)
	if s := strings.TrimSpace(defaultScreen); s != "" {
		app[defaultScreenKey] = s
	}

	layers := []opts.Layer[map[string]any]{
		opts.NewLayer(opts.NewScope(scopeSystem, opts.ScopePrioritySystem), layering.Clone(system),
			opts.WithSnapshotID[map[string]any]("routes:system")),
	}
	if len(app) > 0 {
		layers = append(layers, opts.NewLayer(opts.NewScope(scopeApp, opts.ScopePriorityTenant), layering.Clone(app),
			opts.WithSnapshotID[map[string]any]("routes:app")))
	}

	stack, err := opts.NewStack(layers...)
	if err != nil {
		return nil, fmt.Errorf("routes: build stack: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return nil, fmt.Errorf("routes: merge: %w", err)
	}

	table := &Table{
		defaultScreen: DefaultScreen,
		routes:        make(map[string]Route),
		origins:       make(map[string]string),
		options:       merged,
	}
	if value, _, err := merged.ResolveWithTrace(defaultScreenKey); err == nil {
		if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
			table.defaultScreen = s
		}
	}

	for _, typ := range routeKeys(system, app) {
		value, _, err := merged.ResolveWithTrace(typ)
		if err != nil {
			return nil, fmt.Errorf("routes: resolve %s: %w", typ, err)
		}
		route, ok := decodeRoute(value)
		if !ok {
			return nil, fmt.Errorf("routes: %s: %w", typ, ErrEmptyScreen)
		}
		table.routes[typ] = route
		if _, overridden := app[typ]; overridden {
			table.origins[typ] = scopeApp
		} else {
			table.origins[typ] = scopeSystem
		}
	}
	return table, nil
}

// MustBuild is Build for static tables.
func MustBuild(overrides map[string]Route, defaultScreen string) *Table {
	table, err := Build(overrides, defaultScreen)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the route for a notification type.
func (t *Table) Lookup(typ string) (Route, bool) {
	if t == nil {
		return Route{}, false
	}
	route, ok := t.routes[typ]
	if !ok {
		return Route{}, false
	}
	route.Params = append([]string(nil), route.Params...)
	return route, true
}

// Default returns the fallback screen.
func (t *Table) Default() string {
	if t == nil || t.defaultScreen == "" {
		return DefaultScreen
	}
	return t.defaultScreen
}

// Origin reports which layer supplied the route for typ: "system" or "app".
func (t *Table) Origin(typ string) string {
	if t == nil {
		return ""
	}
	return t.origins[typ]
}

// Types lists the routed notification types in sorted order.
func (t *Table) Types() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.routes))
	for typ := range t.routes {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// Explain resolves a route through the merged options and returns the
// go-options trace for diagnostics.
func (t *Table) Explain(typ string) (any, opts.Trace, error) {
	if t == nil || t.options == nil {
		return nil, opts.Trace{Path: typ}, fmt.Errorf("routes: table not initialised")
	}
	return t.options.ResolveWithTrace(typ)
}

func encodeLayer(routes map[string]Route) map[string]any {
	out := make(map[string]any, len(routes))
	for typ, route := range routes {
		params := make([]any, len(route.Params))
		for i, p := range route.Params {
			params[i] = p
		}
		out[typ] = map[string]any{
			"screen":   route.Screen,
			"params":   params,
			"require":  route.Require,
			"fallback": route.Fallback,
		}
	}
	return out
}

func decodeRoute(value any) (Route, bool) {
	raw, ok := value.(map[string]any)
	if !ok {
		return Route{}, false
	}
	route := Route{
		Screen:   stringValue(raw["screen"]),
		Require:  stringValue(raw["require"]),
		Fallback: stringValue(raw["fallback"]),
	}
	switch params := raw["params"].(type) {
	case []string:
		route.Params = append([]string(nil), params...)
	case []any:
		for _, p := range params {
			if s := stringValue(p); s != "" {
				route.Params = append(route.Params, s)
			}
		}
	}
	if route.Screen == "" {
		return Route{}, false
	}
	return route, true
}

func routeKeys(layers ...map[string]any) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, layer := range layers {
		for key := range layer {
			if key == defaultScreenKey {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
