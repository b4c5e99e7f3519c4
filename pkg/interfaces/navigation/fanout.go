package navigation

import "context"

// Func adapts a function to the Navigator interface.
type Func func(ctx context.Context, screen string, params map[string]any) error

// Navigate satisfies the Navigator interface.
func (f Func) Navigate(ctx context.Context, screen string, params map[string]any) error {
	if f == nil {
		return nil
	}
	return f(ctx, screen, params)
}

// Fanout forwards navigation to multiple targets, e.g. the UI shell and a
// diagnostics log.
type Fanout struct {
	targets []Navigator
}

// NewFanout assembles a navigator that multicasts to the provided targets.
func NewFanout(targets ...Navigator) *Fanout {
	filtered := make([]Navigator, 0, len(targets))
	for _, target := range targets {
		if target != nil {
			filtered = append(filtered, target)
		}
	}
	return &Fanout{targets: filtered}
}

var _ Navigator = (*Fanout)(nil)

// Navigate calls each target, returning the first error observed.
func (f *Fanout) Navigate(ctx context.Context, screen string, params map[string]any) error {
	var firstErr error
	for _, target := range f.targets {
		if err := target.Navigate(ctx, screen, params); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
