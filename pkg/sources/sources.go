// Package sources adapts platform link and notification callbacks into raw
// events for the router.
package sources

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-linkrouter/internal/redact"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
)

// Sink receives raw events from a source.
type Sink func(ctx context.Context, raw intents.RawEvent)

// Unsubscribe cancels a platform subscription.
type Unsubscribe func()

// LinkPlatform is the OS surface for deep links.
type LinkPlatform interface {
	// InitialURL returns the URL the process was launched with, or "".
	InitialURL(ctx context.Context) (string, error)
	SubscribeURLs(fn func(url string)) (Unsubscribe, error)
}

var (
	ErrMissingPlatform = errors.New("sources: platform is required")
	ErrNilSink         = errors.New("sources: sink is required")
)

// LinkSource turns the initial URL and live URL callbacks into LinkEvents.
type LinkSource struct {
	platform LinkPlatform
	logger   logger.Logger

	mu    sync.Mutex
	unsub Unsubscribe
}

// NewLinkSource wraps platform.
func NewLinkSource(platform LinkPlatform, lgr logger.Logger) (*LinkSource, error) {
	if platform == nil {
		return nil, ErrMissingPlatform
	}
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	return &LinkSource{platform: platform, logger: lgr}, nil
}

// Start subscribes to live URLs. A second Start while subscribed is a no-op.
func (s *LinkSource) Start(ctx context.Context, sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		return nil
	}
	detached := context.WithoutCancel(ctx)
	unsub, err := s.platform.SubscribeURLs(func(raw string) {
		s.logger.Debug("link received", logger.F("url", redact.URL(raw)))
		sink(detached, intents.LinkEvent{URL: raw, Origin: intents.OriginLive})
	})
	if err != nil {
		return err
	}
	if unsub == nil {
		unsub = func() {}
	}
	s.unsub = unsub
	return nil
}

// Initial queries the launch URL once and forwards it when present. Query
// failures are logged and treated as absent.
func (s *LinkSource) Initial(ctx context.Context, sink Sink) {
	if sink == nil {
		return
	}
	raw, err := s.platform.InitialURL(ctx)
	if err != nil {
		s.logger.Warn("initial url query failed", logger.F("error", err))
		return
	}
	if strings.TrimSpace(raw) == "" {
		return
	}
	s.logger.Debug("initial link received", logger.F("url", redact.URL(raw)))
	sink(ctx, intents.LinkEvent{URL: raw, Origin: intents.OriginInitial})
}

// Stop cancels the live subscription. Safe to call repeatedly.
func (s *LinkSource) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Active reports whether the live subscription is held.
func (s *LinkSource) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsub != nil
}
