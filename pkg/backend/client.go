// Package backend talks to the BookYolo API on behalf of routing handlers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-linkrouter/internal/redact"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/retry"
	"github.com/sony/gobreaker"
)

const verifyEmailPath = "/auth/verify-email"

var (
	ErrMissingBaseURL = errors.New("backend: base url is required")
	ErrEmptyToken     = errors.New("backend: token is required")
	// ErrRejected means the API refused the request; retrying will not help.
	ErrRejected = errors.New("backend: request rejected")
	// ErrUnavailable covers transport failures, 5xx responses and an open
	// circuit.
	ErrUnavailable = errors.New("backend: unavailable")
)

// Options configure a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    retry.Backoff
	// BreakerFailures consecutive failures open the circuit for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
	Logger          logger.Logger
}

// Client calls the API through a circuit breaker with bounded retries.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	retries int
	backoff retry.Backoff
	logger  logger.Logger
}

// New validates opts and builds a client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, ErrMissingBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = &logger.Nop{}
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	lgr := opts.Logger
	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "backend",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a rejected token says nothing about backend health
			return err == nil || errors.Is(err, ErrRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			lgr.Warn("backend circuit state changed",
				logger.F("breaker", name),
				logger.F("from", from.String()),
				logger.F("to", to.String()),
			)
		},
	})
	return &Client{
		baseURL: base,
		http:    opts.HTTPClient,
		breaker: breaker,
		retries: opts.MaxRetries,
		backoff: opts.Backoff,
		logger:  lgr,
	}, nil
}

// VerifyEmail posts token to the verification endpoint. A nil error means the
// token was accepted.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return err
	}

	err = retry.Do(ctx, c.retries+1, c.backoff, isRetryable, func(ctx context.Context) error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			return nil, c.post(ctx, verifyEmailPath, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	})
	if err != nil {
		c.logger.Warn("email verification failed",
			logger.F("token", redact.String(token)),
			logger.F("error", err),
		)
	}
	return err
}

// BreakerState reports the circuit state.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable) && !errors.Is(err, gobreaker.ErrOpenState)
}
