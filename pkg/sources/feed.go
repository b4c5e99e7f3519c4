package sources

import (
	"context"
	"sync"
)

type subscribers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (s *subscribers[T]) add(fn func(T)) Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers[T]) snapshot() []func(T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]func(T), 0, len(s.fns))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (s *subscribers[T]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// LinkFeed is an in-process LinkPlatform. Hosts without an OS link surface
// (the daemon, tests) push URLs into it.
type LinkFeed struct {
	mu      sync.Mutex
	initial string
	subs    subscribers[string]
}

// NewLinkFeed returns a feed reporting initial as the launch URL.
func NewLinkFeed(initial string) *LinkFeed {
	return &LinkFeed{initial: initial}
}

func (f *LinkFeed) InitialURL(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initial, nil
}

func (f *LinkFeed) SubscribeURLs(fn func(url string)) (Unsubscribe, error) {
	return f.subs.add(fn), nil
}

// SetInitial replaces the launch URL.
func (f *LinkFeed) SetInitial(raw string) {
	f.mu.Lock()
	f.initial = raw
	f.mu.Unlock()
}

// Open delivers raw to every subscriber.
func (f *LinkFeed) Open(raw string) {
	for _, fn := range f.subs.snapshot() {
		fn(raw)
	}
}

// Subscribers returns the live subscription count.
func (f *LinkFeed) Subscribers() int {
	return f.subs.len()
}

// NotificationFeed is an in-process NotificationPlatform.
type NotificationFeed struct {
	responses subscribers[map[string]any]
	received  subscribers[map[string]any]
}

func NewNotificationFeed() *NotificationFeed {
	return &NotificationFeed{}
}

func (f *NotificationFeed) SubscribeResponses(fn func(resp map[string]any)) (Unsubscribe, error) {
	return f.responses.add(fn), nil
}

func (f *NotificationFeed) SubscribeReceived(fn func(resp map[string]any)) (Unsubscribe, error) {
	return f.received.add(fn), nil
}

// Tap reports resp as tapped by the user.
func (f *NotificationFeed) Tap(resp map[string]any) {
	for _, fn := range f.responses.snapshot() {
		fn(resp)
	}
}

// Deliver reports resp as shown while foregrounded.
func (f *NotificationFeed) Deliver(resp map[string]any) {
	for _, fn := range f.received.snapshot() {
		fn(resp)
	}
}

// Subscribers returns the live tapped and delivered subscription counts.
func (f *NotificationFeed) Subscribers() (tapped, delivered int) {
	return f.responses.len(), f.received.len()
}
