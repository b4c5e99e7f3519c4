package sources

import (
	"context"
	"sync"

	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
)

// NotificationPlatform is the OS surface for notification callbacks.
type NotificationPlatform interface {
	// SubscribeResponses reports notifications the user tapped.
	SubscribeResponses(fn func(resp map[string]any)) (Unsubscribe, error)
	// SubscribeReceived reports notifications shown while foregrounded.
	SubscribeReceived(fn func(resp map[string]any)) (Unsubscribe, error)
}

// NotificationOptions tune a NotificationSource.
type NotificationOptions struct {
	Logger logger.Logger
	// Dedup drops repeated tapped callbacks for the same notification.
	Dedup     bool
	DedupSize int
	// ObserveDelivered also forwards foreground deliveries. They never
	// navigate.
	ObserveDelivered bool
}

// NotificationSource turns platform responses into NotificationEvents.
type NotificationSource struct {
	platform NotificationPlatform
	logger   logger.Logger
	opts     NotificationOptions
	tapped   *seenSet

	mu     sync.Mutex
	unsubs []Unsubscribe
}

// NewNotificationSource wraps platform.
func NewNotificationSource(platform NotificationPlatform, opts NotificationOptions) (*NotificationSource, error) {
	if platform == nil {
		return nil, ErrMissingPlatform
	}
	if opts.Logger == nil {
		opts.Logger = &logger.Nop{}
	}
	src := &NotificationSource{
		platform: platform,
		logger:   opts.Logger,
		opts:     opts,
	}
	if opts.Dedup {
		src.tapped = newSeenSet(opts.DedupSize)
	}
	return src, nil
}

// Start subscribes to the platform. A second Start while subscribed is a
// no-op. If any subscription fails, the ones already made are released.
func (s *NotificationSource) Start(ctx context.Context, sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.unsubs) > 0 {
		return nil
	}
	detached := context.WithoutCancel(ctx)

	unsub, err := s.platform.SubscribeResponses(func(resp map[string]any) {
		s.forward(detached, sink, resp, intents.InteractionTapped)
	})
	if err != nil {
		return err
	}
	acquired := []Unsubscribe{orNop(unsub)}

	if s.opts.ObserveDelivered {
		unsub, err = s.platform.SubscribeReceived(func(resp map[string]any) {
			s.forward(detached, sink, resp, intents.InteractionDelivered)
		})
		if err != nil {
			for _, release := range acquired {
				release()
			}
			return err
		}
		acquired = append(acquired, orNop(unsub))
	}
	s.unsubs = acquired
	return nil
}

// Stop releases every subscription. Safe to call repeatedly.
func (s *NotificationSource) Stop() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, release := range unsubs {
		release()
	}
	if s.tapped != nil {
		s.tapped.reset()
	}
}

// Active reports whether subscriptions are held.
func (s *NotificationSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unsubs) > 0
}

func (s *NotificationSource) forward(ctx context.Context, sink Sink, resp map[string]any, interaction intents.Interaction) {
	ev, err := ParseResponse(resp, interaction)
	if err != nil {
		// Malformed responses still resolve to the default screen when tapped.
		s.logger.Warn("notification response malformed", logger.F("error", err))
	}
	if interaction == intents.InteractionTapped && s.tapped != nil {
		if key := DedupKey(ev); key != "" && !s.tapped.add(key) {
			s.logger.Debug("notification duplicate skipped", logger.F("identifier", ev.Identifier))
			return
		}
	}
	s.logger.Debug("notification received",
		logger.F("interaction", interaction),
		logger.F("identifier", ev.Identifier),
	)
	sink(ctx, ev)
}

func orNop(fn Unsubscribe) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	return fn
}
