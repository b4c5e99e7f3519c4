// Package router owns the routing lifecycle: it subscribes the link and
// notification sources, buffers events that arrive before it is active, and
// pushes every event through the resolver into the dispatch registry.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/internal/redact"
	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/goliatone/go-linkrouter/pkg/resolver"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/google/uuid"
)

// State is a lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateActive        State = "active"
	StateDestroyed     State = "destroyed"
)

// Outcome reports what Deliver did with an event.
type Outcome = dispatcher.Outcome

const (
	OutcomeDelivered  = dispatcher.OutcomeDelivered
	OutcomeFailed     = dispatcher.OutcomeFailed
	OutcomeDispatched = dispatcher.OutcomeDispatched
	OutcomeBuffered   = dispatcher.OutcomeBuffered
	OutcomeEvicted    = dispatcher.OutcomeEvicted
	OutcomeDropped    = dispatcher.OutcomeDropped
	// OutcomeObserved marks foreground notification deliveries, which are
	// recorded but never dispatched.
	OutcomeObserved Outcome = "observed"
)

// DefaultBufferSize bounds events held before the router is active.
const DefaultBufferSize = 8

var (
	ErrRouterDestroyed = errors.New("router: destroyed")
	ErrSubscribe       = errors.New("router: subscribe failed")
)

// Dependencies wire a Router. Every field is optional; nil sources are
// simply not subscribed.
type Dependencies struct {
	Resolver      *resolver.Resolver
	Registry      *dispatcher.Registry
	Links         *sources.LinkSource
	Notifications *sources.NotificationSource
	History       store.RouteRecordRepository
	Activity      activity.Hook
	Logger        logger.Logger
	BufferSize    int
}

// Router is the explicit routing instance owned by the host application.
type Router struct {
	resolver      *resolver.Resolver
	registry      *dispatcher.Registry
	links         *sources.LinkSource
	notifications *sources.NotificationSource
	recorder      *recorder
	logger        logger.Logger
	bufferSize    int

	mu     sync.Mutex
	state  State
	buffer []bufferedEvent

	// deliverMu serializes resolution and dispatch.
	deliverMu sync.Mutex
}

type bufferedEvent struct {
	ctx context.Context
	raw intents.RawEvent
	at  time.Time
}

// New builds a router in the Uninitialized state.
func New(deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.Resolver == nil {
		deps.Resolver = resolver.New(resolver.Options{})
	}
	if deps.BufferSize <= 0 {
		deps.BufferSize = DefaultBufferSize
	}
	if deps.Registry == nil {
		deps.Registry = dispatcher.New(dispatcher.Dependencies{
			Logger:       deps.Logger,
			PendingLimit: deps.BufferSize,
		})
	}
	r := &Router{
		resolver:      deps.Resolver,
		registry:      deps.Registry,
		links:         deps.Links,
		notifications: deps.Notifications,
		recorder:      newRecorder(deps.History, deps.Activity, deps.Logger),
		logger:        deps.Logger,
		bufferSize:    deps.BufferSize,
		state:         StateUninitialized,
	}
	r.registry.SetObserver(r.recorder)
	return r
}

// Registry exposes handler registration.
func (r *Router) Registry() *dispatcher.Registry {
	return r.registry
}

// Register binds handler to kind on the router's registry.
func (r *Router) Register(ctx context.Context, kind intents.Kind, handler dispatcher.Handler, opts ...dispatcher.RegisterOption) error {
	return r.registry.Register(ctx, kind, handler, opts...)
}

// State returns the current lifecycle state.
func (r *Router) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Buffered returns the number of events held until the router is active.
func (r *Router) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Init subscribes both sources, queries the launch URL and flushes buffered
// events in arrival order. It is a no-op while Initializing or Active. A
// subscription failure releases what was acquired and returns the router to
// Uninitialized.
func (r *Router) Init(ctx context.Context) error {
	r.mu.Lock()
	switch r.state {
	case StateInitializing, StateActive:
		state := r.state
		r.mu.Unlock()
		r.logger.Debug("router init skipped", logger.F("state", state))
		return nil
	case StateDestroyed:
		r.mu.Unlock()
		return ErrRouterDestroyed
	}
	r.state = StateInitializing
	r.mu.Unlock()

	if err := r.subscribe(ctx); err != nil {
		r.unsubscribe()
		r.mu.Lock()
		r.state = StateUninitialized
		r.mu.Unlock()
		return err
	}

	if r.links != nil {
		r.links.Initial(ctx, r.sink)
	}

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()

	r.mu.Lock()
	r.state = StateActive
	pending := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	r.logger.Info("router active", logger.F("replayed", len(pending)))
	for _, ev := range pending {
		r.process(ev.ctx, ev.raw, ev.at)
	}
	return nil
}

// Cleanup unsubscribes both sources and moves to Destroyed. Outside Active it
// is a no-op. Async handlers already running are left to finish.
func (r *Router) Cleanup() {
	r.mu.Lock()
	if r.state != StateActive {
		r.mu.Unlock()
		return
	}
	r.state = StateDestroyed
	r.buffer = nil
	r.mu.Unlock()

	r.unsubscribe()
	r.logger.Info("router destroyed")
}

// Wait blocks until async handlers return.
func (r *Router) Wait() {
	r.registry.Wait()
}

// Deliver routes raw. Before Active the event is buffered (oldest evicted
// past the bound); after Destroyed it is dropped.
func (r *Router) Deliver(ctx context.Context, raw intents.RawEvent) Outcome {
	if raw == nil {
		return OutcomeDropped
	}
	at := time.Now().UTC()

	r.mu.Lock()
	switch r.state {
	case StateUninitialized, StateInitializing:
		evicted, hasEvicted := r.holdLocked(bufferedEvent{ctx: context.WithoutCancel(ctx), raw: raw, at: at})
		r.mu.Unlock()
		if hasEvicted {
			r.logger.Warn("router buffer full, evicting oldest event",
				logger.F("source", evicted.raw.Source()),
			)
			r.recorder.raw(ctx, evicted.raw, OutcomeEvicted, r.resolver.Resolve(evicted.raw))
		}
		r.logger.Debug("router buffered event", logger.F("source", raw.Source()))
		return OutcomeBuffered
	case StateDestroyed:
		r.mu.Unlock()
		r.logger.Debug("router destroyed, event dropped", logger.F("source", raw.Source()))
		return OutcomeDropped
	}
	r.mu.Unlock()

	r.deliverMu.Lock()
	defer r.deliverMu.Unlock()
	return r.process(ctx, raw, at)
}

func (r *Router) sink(ctx context.Context, raw intents.RawEvent) {
	r.Deliver(ctx, raw)
}

func (r *Router) holdLocked(ev bufferedEvent) (bufferedEvent, bool) {
	var evicted bufferedEvent
	hasEvicted := false
	if len(r.buffer) >= r.bufferSize {
		evicted = r.buffer[0]
		hasEvicted = true
		r.buffer = append(r.buffer[:0], r.buffer[1:]...)
	}
	r.buffer = append(r.buffer, ev)
	return evicted, hasEvicted
}

// process must run with deliverMu held.
func (r *Router) process(ctx context.Context, raw intents.RawEvent, at time.Time) Outcome {
	if ev, ok := raw.(intents.NotificationEvent); ok && ev.Interaction == intents.InteractionDelivered {
		r.recorder.observed(ctx, ev, r.resolver.Resolve(ev))
		return OutcomeObserved
	}

	in := r.resolver.Resolve(raw)
	d := dispatcher.Delivery{
		ID:         uuid.New(),
		Intent:     in,
		Source:     raw.Source(),
		Origin:     intents.Origin(raw),
		Target:     target(raw),
		ReceivedAt: at,
	}
	r.logger.Debug("router dispatching",
		logger.F("kind", in.Kind()),
		logger.F("source", d.Source),
		logger.F("origin", d.Origin),
		logger.F("delivery_id", d.ID),
	)
	return r.registry.Dispatch(ctx, d)
}

func (r *Router) subscribe(ctx context.Context) error {
	if r.links != nil {
		if err := r.links.Start(ctx, r.sink); err != nil {
			return fmt.Errorf("%w: links: %w", ErrSubscribe, err)
		}
	}
	if r.notifications != nil {
		if err := r.notifications.Start(ctx, r.sink); err != nil {
			return fmt.Errorf("%w: notifications: %w", ErrSubscribe, err)
		}
	}
	return nil
}

func (r *Router) unsubscribe() {
	if r.links != nil {
		r.links.Stop()
	}
	if r.notifications != nil {
		r.notifications.Stop()
	}
}

func target(raw intents.RawEvent) string {
	switch v := raw.(type) {
	case intents.LinkEvent:
		return redact.URL(v.URL)
	case intents.NotificationEvent:
		return v.Identifier
	default:
		return ""
	}
}
