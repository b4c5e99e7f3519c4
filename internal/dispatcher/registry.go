package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/google/uuid"
)

// Handler performs the side effect for one intent kind.
type Handler = command.Commander[intents.Intent]

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, in intents.Intent) error

// Execute satisfies command.Commander.
func (f HandlerFunc) Execute(ctx context.Context, in intents.Intent) error {
	if f == nil {
		return nil
	}
	return f(ctx, in)
}

// Outcome describes what happened to a delivery.
type Outcome string

const (
	OutcomeDelivered  Outcome = "delivered"
	OutcomeFailed     Outcome = "failed"
	OutcomeDispatched Outcome = "dispatched"
	OutcomeBuffered   Outcome = "buffered"
	OutcomeEvicted    Outcome = "evicted"
	OutcomeDropped    Outcome = "dropped"
)

// Delivery is a resolved intent travelling through the registry.
type Delivery struct {
	ID         uuid.UUID
	Intent     intents.Intent
	Source     intents.Source
	Origin     string
	// Target is the masked URL or notification identifier.
	Target     string
	ReceivedAt time.Time
}

// Observer is told about every outcome, including the completion of async
// handlers.
type Observer interface {
	Settled(ctx context.Context, d Delivery, outcome Outcome, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, d Delivery, outcome Outcome, err error)

func (f ObserverFunc) Settled(ctx context.Context, d Delivery, outcome Outcome, err error) {
	if f != nil {
		f(ctx, d, outcome, err)
	}
}

// RegisterOption tunes a handler binding.
type RegisterOption func(*binding)

// Async runs the handler on its own goroutine. Dispatch returns immediately
// with OutcomeDispatched; the result reaches the Observer when it finishes.
func Async() RegisterOption {
	return func(b *binding) {
		b.async = true
	}
}

// RunAsync marks h to run on its own goroutine, like the Async option, so
// mixed sets can be bound together with RegisterMany.
func RunAsync(h Handler) Handler {
	if h == nil {
		return nil
	}
	return asyncHandler{h}
}

type asyncHandler struct {
	Handler
}

type binding struct {
	handler Handler
	async   bool
}

// Dependencies configure the registry.
type Dependencies struct {
	Logger   logger.Logger
	Observer Observer
	// PendingLimit bounds intents held while no handler exists.
	PendingLimit int
}

// Registry maps intent kinds to at most one handler each. Sync handlers run
// one intent at a time; a handler must not register or dispatch from inside
// Execute.
type Registry struct {
	// dispatchMu orders held-intent flushes against live dispatches.
	dispatchMu sync.Mutex

	mu           sync.Mutex
	handlers     map[intents.Kind]binding
	pending      []Delivery
	pendingLimit int

	logger   logger.Logger
	observer Observer
	inflight sync.WaitGroup
}

const DefaultPendingLimit = 8

var (
	ErrUnknownKind     = errors.New("dispatcher: unknown intent kind")
	ErrMissingHandler  = errors.New("dispatcher: handler is required")
	ErrHandlerPanicked = errors.New("dispatcher: handler panicked")
)

// New builds an empty registry.
func New(deps Dependencies) *Registry {
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	if deps.PendingLimit <= 0 {
		deps.PendingLimit = DefaultPendingLimit
	}
	return &Registry{
		handlers:     make(map[intents.Kind]binding),
		pendingLimit: deps.PendingLimit,
		logger:       deps.Logger,
		observer:     deps.Observer,
	}
}

// SetObserver replaces the outcome observer.
func (r *Registry) SetObserver(o Observer) {
	r.mu.Lock()
	r.observer = o
	r.mu.Unlock()
}

// Register binds handler to kind, replacing any previous handler. Intents
// held for kind are delivered before Register returns.
func (r *Registry) Register(ctx context.Context, kind intents.Kind, handler Handler, opts ...RegisterOption) error {
	return r.RegisterMany(ctx, map[intents.Kind]Handler{kind: handler}, opts...)
}

// RegisterMany binds several handlers at once so held intents are flushed in
// arrival order across all of the new kinds.
func (r *Registry) RegisterMany(ctx context.Context, handlers map[intents.Kind]Handler, opts ...RegisterOption) error {
	for kind, h := range handlers {
		if !intents.ValidKind(kind) {
			return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		if h == nil {
			return fmt.Errorf("%w: %s", ErrMissingHandler, kind)
		}
	}

	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	for kind, h := range handlers {
		b := binding{handler: h}
		if _, ok := h.(asyncHandler); ok {
			b.async = true
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&b)
			}
		}
		if _, replaced := r.handlers[kind]; replaced {
			r.logger.Debug("dispatcher handler replaced", logger.F("kind", kind))
		}
		r.handlers[kind] = b
	}
	ready, dropped := r.takePendingLocked()
	r.mu.Unlock()

	for _, d := range dropped {
		r.logger.Info("dispatcher dropped held intent without handler",
			logger.F("kind", d.Intent.Kind()),
			logger.F("delivery_id", d.ID),
		)
		r.notify(ctx, d, OutcomeDropped, nil)
	}
	for _, item := range ready {
		r.invoke(ctx, item.delivery, item.binding)
	}
	return nil
}

// Unregister removes the handler for kind.
func (r *Registry) Unregister(kind intents.Kind) {
	r.mu.Lock()
	delete(r.handlers, kind)
	r.mu.Unlock()
}

// Has reports whether kind has a handler.
func (r *Registry) Has(kind intents.Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handlers[kind]
	return ok
}

// Pending returns the number of held intents.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Dispatch delivers d to the handler for its kind. While no handler exists
// at all, d is held and delivered on the registration of its kind. Once any
// handler exists, an intent with no handler is logged and dropped.
func (r *Registry) Dispatch(ctx context.Context, d Delivery) Outcome {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Intent == nil {
		d.Intent = intents.Unrecognized{}
	}
	kind := d.Intent.Kind()

	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()

	r.mu.Lock()
	b, ok := r.handlers[kind]
	if !ok {
		if len(r.handlers) == 0 {
			evicted, hasEvicted := r.holdLocked(d)
			r.mu.Unlock()
			if hasEvicted {
				r.logger.Warn("dispatcher pending limit reached, evicting oldest intent",
					logger.F("kind", evicted.Intent.Kind()),
					logger.F("delivery_id", evicted.ID),
				)
				r.notify(ctx, evicted, OutcomeEvicted, nil)
			}
			r.logger.Debug("dispatcher holding intent until a handler registers",
				logger.F("kind", kind),
				logger.F("delivery_id", d.ID),
			)
			r.notify(ctx, d, OutcomeBuffered, nil)
			return OutcomeBuffered
		}
		r.mu.Unlock()
		r.logger.Info("dispatcher dropped intent without handler",
			logger.F("kind", kind),
			logger.F("delivery_id", d.ID),
		)
		r.notify(ctx, d, OutcomeDropped, nil)
		return OutcomeDropped
	}
	r.mu.Unlock()

	return r.invoke(ctx, d, b)
}

// Wait blocks until in-flight async handlers return.
func (r *Registry) Wait() {
	r.inflight.Wait()
}

type readyDelivery struct {
	delivery Delivery
	binding  binding
}

// takePendingLocked splits the held intents into those now bound, held
// Unrecognized intents left without a handler (dropped), and the rest.
func (r *Registry) takePendingLocked() ([]readyDelivery, []Delivery) {
	if len(r.pending) == 0 {
		return nil, nil
	}
	var ready []readyDelivery
	var dropped []Delivery
	kept := r.pending[:0]
	for _, d := range r.pending {
		kind := d.Intent.Kind()
		if b, ok := r.handlers[kind]; ok {
			ready = append(ready, readyDelivery{delivery: d, binding: b})
			continue
		}
		if kind == intents.KindUnrecognized {
			dropped = append(dropped, d)
			continue
		}
		kept = append(kept, d)
	}
	r.pending = kept
	return ready, dropped
}

// holdLocked appends d, evicting the oldest Unrecognized intent when full,
// or the oldest intent when none is held.
func (r *Registry) holdLocked(d Delivery) (Delivery, bool) {
	var evicted Delivery
	hasEvicted := false
	if len(r.pending) >= r.pendingLimit {
		victim := 0
		for i, held := range r.pending {
			if held.Intent.Kind() == intents.KindUnrecognized {
				victim = i
				break
			}
		}
		evicted = r.pending[victim]
		hasEvicted = true
		r.pending = append(r.pending[:victim], r.pending[victim+1:]...)
	}
	r.pending = append(r.pending, d)
	return evicted, hasEvicted
}

func (r *Registry) invoke(ctx context.Context, d Delivery, b binding) Outcome {
	if !b.async {
		err := r.execute(ctx, d, b.handler)
		if err != nil {
			r.notify(ctx, d, OutcomeFailed, err)
			return OutcomeFailed
		}
		r.notify(ctx, d, OutcomeDelivered, nil)
		return OutcomeDelivered
	}

	detached := context.WithoutCancel(ctx)
	r.notify(ctx, d, OutcomeDispatched, nil)
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		if err := r.execute(detached, d, b.handler); err != nil {
			r.notify(detached, d, OutcomeFailed, err)
			return
		}
		r.notify(detached, d, OutcomeDelivered, nil)
	}()
	return OutcomeDispatched
}

func (r *Registry) execute(ctx context.Context, d Delivery, h Handler) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, rec)
		}
		if err != nil {
			r.logger.Error("dispatcher handler failed",
				logger.F("kind", d.Intent.Kind()),
				logger.F("delivery_id", d.ID),
				logger.F("error", err),
			)
		}
	}()
	return h.Execute(ctx, d.Intent)
}

func (r *Registry) notify(ctx context.Context, d Delivery, outcome Outcome, err error) {
	r.mu.Lock()
	o := r.observer
	r.mu.Unlock()
	if o == nil {
		return
	}
	o.Settled(ctx, d, outcome, err)
}
