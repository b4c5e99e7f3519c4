package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
)

// Hook posts routing activity to an HTTP endpoint.
type Hook struct {
	name   string
	cfg    Config
	client *http.Client
	logger logger.Logger
}

// Config configures the webhook hook.
type Config struct {
	URL           string
	Method        string
	Headers       map[string]string
	Timeout       time.Duration
	BasicAuthUser string
	BasicAuthPass string
	DryRun        bool
	// ForwardMetadata includes evt.Metadata in the payload.
	ForwardMetadata bool
}

type Option func(*Hook)

// WithName overrides the hook name used in logs.
func WithName(name string) Option {
	return func(h *Hook) {
		if strings.TrimSpace(name) != "" {
			h.name = name
		}
	}
}

// WithConfig sets the hook configuration.
func WithConfig(cfg Config) Option {
	return func(h *Hook) {
		h.cfg = cfg
	}
}

// WithClient allows injecting a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(h *Hook) {
		if c != nil {
			h.client = c
		}
	}
}

// New constructs the webhook hook.
func New(l logger.Logger, opts ...Option) *Hook {
	if l == nil {
		l = &logger.Nop{}
	}
	hook := &Hook{
		name:   "webhook",
		logger: l,
		cfg: Config{
			Method:  http.MethodPost,
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(hook)
		}
	}
	if hook.cfg.Method == "" {
		hook.cfg.Method = http.MethodPost
	}
	if hook.cfg.Timeout <= 0 {
		hook.cfg.Timeout = 10 * time.Second
	}
	if hook.client == nil {
		hook.client = &http.Client{Timeout: hook.cfg.Timeout}
	}
	return hook
}

// Notify implements activity.Hook. Failures are logged, never returned.
func (h *Hook) Notify(ctx context.Context, evt activity.Event) {
	if err := h.Send(ctx, evt); err != nil {
		h.logger.Warn("activity webhook failed",
			logger.F("hook", h.name),
			logger.F("verb", evt.Verb),
			logger.F("error", err),
		)
	}
}

// Send posts evt and reports the result.
func (h *Hook) Send(ctx context.Context, evt activity.Event) error {
	if h.cfg.DryRun {
		h.logger.Info("[webhook:dry-run] send skipped",
			logger.F("url", h.cfg.URL),
			logger.F("verb", evt.Verb),
		)
		return nil
	}
	if strings.TrimSpace(h.cfg.URL) == "" {
		return fmt.Errorf("webhook: url is required")
	}

	payload := map[string]any{
		"verb":        evt.Verb,
		"delivery_id": evt.DeliveryID,
		"source":      evt.Source,
		"origin":      evt.Origin,
		"kind":        evt.Kind,
		"screen":      evt.Screen,
		"occurred_at": evt.OccurredAt,
	}
	if h.cfg.ForwardMetadata && len(evt.Metadata) > 0 {
		payload["metadata"] = evt.Metadata
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(h.cfg.Method), h.cfg.URL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.cfg.BasicAuthUser != "" {
		req.SetBasicAuth(h.cfg.BasicAuthUser, h.cfg.BasicAuthPass)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}
