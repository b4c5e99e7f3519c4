package navigation

import "context"

// Navigator performs the navigation side effect of a dispatched intent.
type Navigator interface {
	Navigate(ctx context.Context, screen string, params map[string]any) error
}

// Nop navigator discards navigation requests.
type Nop struct{}

var _ Navigator = (*Nop)(nil)

func (n *Nop) Navigate(ctx context.Context, screen string, params map[string]any) error { return nil }
