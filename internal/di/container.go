package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/backend"
	"github.com/goliatone/go-linkrouter/pkg/commands"
	"github.com/goliatone/go-linkrouter/pkg/config"
	"github.com/goliatone/go-linkrouter/pkg/handlers"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/navigation"
	"github.com/goliatone/go-linkrouter/pkg/resolver"
	"github.com/goliatone/go-linkrouter/pkg/router"
	"github.com/goliatone/go-linkrouter/pkg/routes"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/goliatone/go-linkrouter/pkg/storage"
)

// Options configure the DI container.
type Options struct {
	Config    config.Config
	Storage   storage.Providers
	Logger    logger.Logger
	Navigator navigation.Navigator
	// Verifier overrides the backend client built from Config.Backend.
	Verifier             handlers.Verifier
	LinkPlatform         sources.LinkPlatform
	NotificationPlatform sources.NotificationPlatform
	Activity             activity.Hook
	// SkipDefaultHandlers leaves the registry empty so the host binds its own.
	SkipDefaultHandlers bool
}

// Container wires storage, sources, resolver, registry, router, and commands.
type Container struct {
	Config        config.Config
	Storage       storage.Providers
	Routes        *routes.Table
	Resolver      *resolver.Resolver
	Registry      *dispatcher.Registry
	Links         *sources.LinkSource
	Notifications *sources.NotificationSource
	// LinkFeed and NotificationFeed are set when no platform was supplied.
	LinkFeed         *sources.LinkFeed
	NotificationFeed *sources.NotificationFeed
	Backend          *backend.Client
	Handlers         *handlers.Set
	Router           *router.Router
	Commands         *commands.Registry
}

func isZeroConfig(cfg config.Config) bool {
	return reflect.ValueOf(cfg).IsZero()
}

// New constructs the container using the supplied options. ctx bounds
// opening the configured database.
func New(ctx context.Context, opts Options) (*Container, error) {
	cfg := opts.Config
	if isZeroConfig(cfg) {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lgr := opts.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}

	providers := opts.Storage
	if providers.Routes == nil {
		var err error
		providers, err = openStorage(ctx, cfg.Persistence)
		if err != nil {
			return nil, err
		}
	}

	hook := opts.Activity
	if hook == nil {
		hook = activity.Nop{}
	}

	nav := opts.Navigator
	if nav == nil {
		lgr.Warn("no navigator configured, navigation calls are discarded")
		nav = &navigation.Nop{}
	}

	table, err := routes.Build(cfg.RouteOverrides(), cfg.Screens.Default)
	if err != nil {
		return nil, err
	}
	res := resolver.New(resolver.Options{
		Scheme:         cfg.App.Scheme,
		ListingDomains: cfg.App.ListingDomains,
		Routes:         table,
	})

	c := &Container{
		Config:   cfg,
		Storage:  providers,
		Routes:   table,
		Resolver: res,
	}

	linkPlatform := opts.LinkPlatform
	if linkPlatform == nil {
		c.LinkFeed = sources.NewLinkFeed("")
		linkPlatform = c.LinkFeed
	}
	notificationPlatform := opts.NotificationPlatform
	if notificationPlatform == nil {
		c.NotificationFeed = sources.NewNotificationFeed()
		notificationPlatform = c.NotificationFeed
	}

	c.Links, err = sources.NewLinkSource(linkPlatform, lgr)
	if err != nil {
		return nil, err
	}
	c.Notifications, err = sources.NewNotificationSource(notificationPlatform, sources.NotificationOptions{
		Logger:           lgr,
		Dedup:            !cfg.Router.DisableDedup,
		DedupSize:        cfg.Router.DedupSize,
		ObserveDelivered: cfg.Router.ObserveDelivered,
	})
	if err != nil {
		return nil, err
	}

	verifier := opts.Verifier
	if verifier == nil && cfg.Backend.BaseURL != "" {
		c.Backend, err = backend.New(backend.Options{
			BaseURL:         cfg.Backend.BaseURL,
			Timeout:         cfg.Backend.Timeout,
			MaxRetries:      cfg.Backend.MaxRetries,
			BreakerFailures: cfg.Backend.BreakerFailures,
			BreakerCooldown: cfg.Backend.BreakerCooldown,
			Logger:          lgr,
		})
		if err != nil {
			return nil, err
		}
		verifier = c.Backend
	}

	c.Registry = dispatcher.New(dispatcher.Dependencies{
		Logger:       lgr,
		PendingLimit: cfg.Router.BufferSize,
	})

	c.Router = router.New(router.Dependencies{
		Resolver:      res,
		Registry:      c.Registry,
		Links:         c.Links,
		Notifications: c.Notifications,
		History:       providers.Routes,
		Activity:      hook,
		Logger:        lgr,
		BufferSize:    cfg.Router.BufferSize,
	})

	c.Handlers, err = handlers.New(handlers.Dependencies{
		Navigator: nav,
		Verifier:  verifier,
		Screens: handlers.Screens{
			Login:  cfg.Screens.Login,
			Signup: cfg.Screens.Signup,
			Scan:   cfg.Screens.Scan,
		},
		Logger: lgr,
	})
	if err != nil {
		return nil, err
	}
	if !opts.SkipDefaultHandlers {
		if err := c.Handlers.Register(ctx, c.Registry); err != nil {
			return nil, fmt.Errorf("di: register handlers: %w", err)
		}
	}

	c.Commands, err = commands.New(commands.Dependencies{
		Router: c.Router,
		Logger: lgr,
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func openStorage(ctx context.Context, cfg config.PersistenceConfig) (storage.Providers, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return storage.OpenSQLite(ctx, cfg.DSN)
	default:
		return storage.NewMemoryProviders(cfg.Retain), nil
	}
}
