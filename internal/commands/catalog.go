package commands

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-linkrouter/pkg/intents"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/router"
	"github.com/goliatone/go-linkrouter/pkg/sources"
)

// Catalog exposes go-command compatible handlers for host transports.
type Catalog struct {
	DeliverLink         command.Commander[DeliverLink]
	DeliverNotification command.Commander[DeliverNotification]
	InitRouter          command.Commander[InitRouter]
	CleanupRouter       command.Commander[CleanupRouter]
}

type routerService interface {
	Init(ctx context.Context) error
	Cleanup()
	Deliver(ctx context.Context, raw intents.RawEvent) router.Outcome
}

// Dependencies wires the router into the command catalog.
type Dependencies struct {
	Router routerService
	Logger logger.Logger
}

var (
	ErrMissingRouter = errors.New("commands: router is required")
	ErrEmptyURL      = errors.New("commands: url is required")
)

// NewCatalog builds the command catalog using the supplied dependencies.
func NewCatalog(deps Dependencies) (*Catalog, error) {
	if deps.Router == nil {
		return nil, ErrMissingRouter
	}
	if deps.Logger == nil {
		deps.Logger = &logger.Nop{}
	}
	return &Catalog{
		DeliverLink:         deliverLinkCommand{router: deps.Router, logger: deps.Logger},
		DeliverNotification: deliverNotificationCommand{router: deps.Router, logger: deps.Logger},
		InitRouter:          initCommand{router: deps.Router},
		CleanupRouter:       cleanupCommand{router: deps.Router},
	}, nil
}

// Receipt reports what happened to a delivered event when the caller asks.
type Receipt struct {
	Outcome router.Outcome `json:"outcome"`
}

// DeliverLink hands a URL to the router as if the OS opened it.
type DeliverLink struct {
	URL string `json:"url"`
	// Initial marks the launch URL; defaults to live.
	Initial bool     `json:"initial"`
	Result  *Receipt `json:"-"`
}

type deliverLinkCommand struct {
	router routerService
	logger logger.Logger
}

func (c deliverLinkCommand) Execute(ctx context.Context, msg DeliverLink) error {
	url := strings.TrimSpace(msg.URL)
	if url == "" {
		return ErrEmptyURL
	}
	origin := intents.OriginLive
	if msg.Initial {
		origin = intents.OriginInitial
	}
	outcome := c.router.Deliver(ctx, intents.LinkEvent{URL: url, Origin: origin})
	c.logger.Debug("link command delivered", logger.F("origin", origin), logger.F("outcome", outcome))
	if msg.Result != nil {
		msg.Result.Outcome = outcome
	}
	return nil
}

// DeliverNotification hands a notification response to the router. Response
// follows the platform shape: notification.request.{identifier, content}.
type DeliverNotification struct {
	Response    map[string]any      `json:"response"`
	Interaction intents.Interaction `json:"interaction"`
	Result      *Receipt            `json:"-"`
}

type deliverNotificationCommand struct {
	router routerService
	logger logger.Logger
}

func (c deliverNotificationCommand) Execute(ctx context.Context, msg DeliverNotification) error {
	interaction := msg.Interaction
	if interaction == "" {
		interaction = intents.InteractionTapped
	}
	if interaction != intents.InteractionTapped && interaction != intents.InteractionDelivered {
		return errors.New("commands: interaction must be tapped or delivered")
	}
	ev, err := sources.ParseResponse(msg.Response, interaction)
	if err != nil {
		c.logger.Warn("notification command with malformed response", logger.F("error", err))
	}
	outcome := c.router.Deliver(ctx, ev)
	if msg.Result != nil {
		msg.Result.Outcome = outcome
	}
	return nil
}

// InitRouter subscribes the sources and drains buffered events.
type InitRouter struct{}

type initCommand struct {
	router routerService
}

func (c initCommand) Execute(ctx context.Context, _ InitRouter) error {
	return c.router.Init(ctx)
}

// CleanupRouter releases subscriptions and destroys the router.
type CleanupRouter struct{}

type cleanupCommand struct {
	router routerService
}

func (c cleanupCommand) Execute(_ context.Context, _ CleanupRouter) error {
	c.router.Cleanup()
	return nil
}
