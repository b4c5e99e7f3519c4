package intents

// Source names the adapter a RawEvent came from.
type Source string

const (
	SourceLink         Source = "link"
	SourceNotification Source = "notification"
)

// LinkOrigin distinguishes the launch URL from links received while running.
type LinkOrigin string

const (
	OriginInitial LinkOrigin = "initial"
	OriginLive    LinkOrigin = "live"
)

// Interaction is how the user met a notification.
type Interaction string

const (
	InteractionDelivered Interaction = "delivered"
	InteractionTapped    Interaction = "tapped"
)

// RawEvent is an unresolved inbound event. The set of implementations is
// closed to this package.
type RawEvent interface {
	Source() Source
	isRawEvent()
}

// LinkEvent is a URI handed to the app by the OS.
type LinkEvent struct {
	URL    string
	Origin LinkOrigin
}

// NotificationEvent is a push or local notification response. Payload is the
// notification's data mapping.
type NotificationEvent struct {
	Identifier  string
	Title       string
	Body        string
	Payload     map[string]any
	Interaction Interaction
}

func (LinkEvent) Source() Source         { return SourceLink }
func (NotificationEvent) Source() Source { return SourceNotification }

func (LinkEvent) isRawEvent()         {}
func (NotificationEvent) isRawEvent() {}

// Origin returns the origin label used in history and activity records.
func Origin(raw RawEvent) string {
	switch v := raw.(type) {
	case LinkEvent:
		if v.Origin == "" {
			return string(OriginLive)
		}
		return string(v.Origin)
	case NotificationEvent:
		if v.Interaction == "" {
			return string(InteractionTapped)
		}
		return string(v.Interaction)
	default:
		return ""
	}
}
