// Package intents defines the raw inbound events the router consumes and the
// structured intents it resolves them into.
package intents

import "fmt"

// Kind identifies an intent variant.
type Kind string

const (
	KindVerifyEmail        Kind = "verify_email"
	KindSignupWithReferral Kind = "signup_with_referral"
	KindScanURL            Kind = "scan_url"
	KindNavigateNamed      Kind = "navigate_named"
	KindUnrecognized       Kind = "unrecognized"
)

// Kinds lists every known intent kind.
var Kinds = []Kind{
	KindVerifyEmail,
	KindSignupWithReferral,
	KindScanURL,
	KindNavigateNamed,
	KindUnrecognized,
}

// ValidKind reports whether k is one of the declared kinds.
func ValidKind(k Kind) bool {
	for _, known := range Kinds {
		if known == k {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Intent is the resolved form of a RawEvent. The set of implementations is
// closed to this package.
type Intent interface {
	Kind() Kind
	isIntent()
}

// VerifyEmail carries an email verification token.
type VerifyEmail struct {
	Token string
}

// SignupWithReferral carries the referral code of a signup link.
type SignupWithReferral struct {
	ReferralCode string
}

// ScanURL carries the listing URL the user wants analysed.
type ScanURL struct {
	TargetURL string
}

// NavigateNamed is a plain "go to screen" intent.
type NavigateNamed struct {
	Screen string
	Params map[string]any
}

// Unrecognized wraps an event that matched no rule.
type Unrecognized struct {
	Original RawEvent
}

func (VerifyEmail) Kind() Kind        { return KindVerifyEmail }
func (SignupWithReferral) Kind() Kind { return KindSignupWithReferral }
func (ScanURL) Kind() Kind            { return KindScanURL }
func (NavigateNamed) Kind() Kind      { return KindNavigateNamed }
func (Unrecognized) Kind() Kind       { return KindUnrecognized }

func (VerifyEmail) isIntent()        {}
func (SignupWithReferral) isIntent() {}
func (ScanURL) isIntent()            {}
func (NavigateNamed) isIntent()      {}
func (Unrecognized) isIntent()       {}

// Describe renders a short human readable form. Secret-bearing fields are
// not included; use the redact package when logging them.
func Describe(in Intent) string {
	switch v := in.(type) {
	case nil:
		return "<nil>"
	case VerifyEmail:
		return "verify_email"
	case SignupWithReferral:
		return "signup_with_referral"
	case ScanURL:
		return fmt.Sprintf("scan_url(%s)", v.TargetURL)
	case NavigateNamed:
		return fmt.Sprintf("navigate(%s)", v.Screen)
	case Unrecognized:
		if v.Original == nil {
			return "unrecognized"
		}
		return fmt.Sprintf("unrecognized(%s)", v.Original.Source())
	default:
		return string(in.Kind())
	}
}
