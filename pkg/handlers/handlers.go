// Package handlers provides the default intent handlers: each turns an
// intent into exactly one navigation call.
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/navigation"
)

// Screens names the navigation targets used by the handlers.
type Screens struct {
	Login  string
	Signup string
	Scan   string
}

// DefaultScreens match the app's navigator.
func DefaultScreens() Screens {
	return Screens{Login: "Login", Signup: "Signup", Scan: "Scan"}
}

// Param keys passed to the navigator.
const (
	ParamReferralCode = "referralCode"
	ParamURL          = "url"
	ParamVerified     = "verified"
)

// Verifier confirms an email verification token.
type Verifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) error

func (f VerifierFunc) VerifyEmail(ctx context.Context, token string) error {
	return f(ctx, token)
}

var (
	ErrMissingNavigator = errors.New("handlers: navigator is required")
	ErrUnexpectedIntent = errors.New("handlers: unexpected intent")
)

// Dependencies configure a Set. Without a Verifier, verification links
// navigate to login unverified.
type Dependencies struct {
	Navigator navigation.Navigator
	Verifier  Verifier
	Screens   Screens
	Logger    logger.Logger
}

// Set holds the default handlers.
type Set struct {
	nav      navigation.Navigator
	verifier Verifier
	screens  Screens
	logger   logger.Logger
}

// New validates deps and fills unset screens with the defaults.
func New(deps Dependencies) (*Set, error) {
	if deps.Navigator == nil {
		return nil, ErrMissingNavigator
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	defaults := DefaultScreens()
	if deps.Screens.Login == "" {
		deps.Screens.Login = defaults.Login
	}
	if deps.Screens.Signup == "" {
		deps.Screens.Signup = defaults.Signup
	}
	if deps.Screens.Scan == "" {
		deps.Screens.Scan = defaults.Scan
	}
	return &Set{
		nav:      deps.Navigator,
		verifier: deps.Verifier,
		screens:  deps.Screens,
		logger:   deps.Logger,
	}, nil
}

// Handlers returns the bindings for every kind with a default behaviour.
// Verification runs async. Unrecognized intents have no handler.
func (s *Set) Handlers() map[intents.Kind]dispatcher.Handler {
	return map[intents.Kind]dispatcher.Handler{
		intents.KindNavigateNamed:      dispatcher.HandlerFunc(s.NavigateNamed),
		intents.KindSignupWithReferral: dispatcher.HandlerFunc(s.SignupWithReferral),
		intents.KindScanURL:            dispatcher.HandlerFunc(s.ScanURL),
		intents.KindVerifyEmail:        dispatcher.RunAsync(dispatcher.HandlerFunc(s.VerifyEmail)),
	}
}

// Register binds every default handler in one step.
func (s *Set) Register(ctx context.Context, reg *dispatcher.Registry) error {
	return reg.RegisterMany(ctx, s.Handlers())
}

func (s *Set) NavigateNamed(ctx context.Context, in intents.Intent) error {
	nav, ok := in.(intents.NavigateNamed)
	if !ok {
		return unexpected(in)
	}
	return s.nav.Navigate(ctx, nav.Screen, nav.Params)
}

func (s *Set) SignupWithReferral(ctx context.Context, in intents.Intent) error {
	signup, ok := in.(intents.SignupWithReferral)
	if !ok {
		return unexpected(in)
	}
	return s.nav.Navigate(ctx, s.screens.Signup, map[string]any{ParamReferralCode: signup.ReferralCode})
}

func (s *Set) ScanURL(ctx context.Context, in intents.Intent) error {
	scan, ok := in.(intents.ScanURL)
	if !ok {
		return unexpected(in)
	}
	return s.nav.Navigate(ctx, s.screens.Scan, map[string]any{ParamURL: scan.TargetURL})
}

// VerifyEmail confirms the token and always lands on the login screen,
// flagging whether verification succeeded.
func (s *Set) VerifyEmail(ctx context.Context, in intents.Intent) error {
	verify, ok := in.(intents.VerifyEmail)
	if !ok {
		return unexpected(in)
	}
	verified := false
	if s.verifier != nil {
		if err := s.verifier.VerifyEmail(ctx, verify.Token); err != nil {
			s.logger.Warn("email verification unsuccessful, continuing to login", logger.F("error", err))
		} else {
			verified = true
		}
	}
	return s.nav.Navigate(ctx, s.screens.Login, map[string]any{ParamVerified: verified})
}

func unexpected(in intents.Intent) error {
	return fmt.Errorf("%w: %s", ErrUnexpectedIntent, intents.Describe(in))
}
