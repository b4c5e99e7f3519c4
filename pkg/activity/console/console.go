package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
)

// Hook writes routing activity to the configured logger for debugging.
type Hook struct {
	logger logger.Logger
	opts   Options
}

type Option func(*Hook)

// Options tweak console output.
type Options struct {
	Structured bool // when true, emit structured fields instead of a formatted line
}

// WithStructured enables structured logging mode.
func WithStructured(enabled bool) Option {
	return func(h *Hook) {
		h.opts.Structured = enabled
	}
}

// New constructs a console hook.
func New(l logger.Logger, opts ...Option) *Hook {
	if l == nil {
		l = &logger.Nop{}
	}
	hook := &Hook{logger: l}
	for _, opt := range opts {
		if opt != nil {
			opt(hook)
		}
	}
	return hook
}

// Notify implements activity.Hook.
func (h *Hook) Notify(_ context.Context, evt activity.Event) {
	if h.opts.Structured {
		h.logger.Info("route activity",
			logger.F("verb", evt.Verb),
			logger.F("delivery_id", evt.DeliveryID),
			logger.F("source", evt.Source),
			logger.F("origin", evt.Origin),
			logger.F("kind", evt.Kind),
			logger.F("screen", evt.Screen),
			logger.F("metadata", evt.Metadata),
		)
		return
	}
	screen := evt.Screen
	if screen == "" {
		screen = "-"
	}
	h.logger.Info(fmt.Sprintf("[activity][%s][%s] kind=%s screen=%s delivery=%s",
		evt.Verb, evt.Source, evt.Kind, screen, evt.DeliveryID))
}
