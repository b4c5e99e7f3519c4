// Package linkrouter is the module facade: it assembles storage, sources,
// the resolver, the handler registry, and the router from one set of options.
package linkrouter

import (
	"context"
	"errors"

	"github.com/goliatone/go-linkrouter/internal/di"
	"github.com/goliatone/go-linkrouter/internal/dispatcher"
	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/commands"
	"github.com/goliatone/go-linkrouter/pkg/config"
	"github.com/goliatone/go-linkrouter/pkg/handlers"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/navigation"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/store"
	"github.com/goliatone/go-linkrouter/pkg/router"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/goliatone/go-linkrouter/pkg/storage"
)

// ModuleOptions configure the module facade.
type ModuleOptions struct {
	Config               config.Config
	Storage              storage.Providers
	Logger               logger.Logger
	Navigator            navigation.Navigator
	Verifier             handlers.Verifier
	LinkPlatform         sources.LinkPlatform
	NotificationPlatform sources.NotificationPlatform
	Activity             activity.Hook
	SkipDefaultHandlers  bool
}

// Module bundles the container and exposes high-level accessors.
type Module struct {
	container *di.Container
}

// NewModule assembles the router and its collaborators. The router starts
// Uninitialized; call Start once the host is ready to navigate.
func NewModule(ctx context.Context, opts ModuleOptions) (*Module, error) {
	container, err := di.New(ctx, di.Options{
		Config:               opts.Config,
		Storage:              opts.Storage,
		Logger:               opts.Logger,
		Navigator:            opts.Navigator,
		Verifier:             opts.Verifier,
		LinkPlatform:         opts.LinkPlatform,
		NotificationPlatform: opts.NotificationPlatform,
		Activity:             opts.Activity,
		SkipDefaultHandlers:  opts.SkipDefaultHandlers,
	})
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Start initializes the router.
func (m *Module) Start(ctx context.Context) error {
	if m == nil || m.container == nil {
		return errors.New("linkrouter: module not initialized")
	}
	return m.container.Router.Init(ctx)
}

// Close cleans up the router, waits for async handlers and releases storage.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	m.container.Router.Cleanup()
	m.container.Router.Wait()
	return m.container.Storage.Close()
}

// Router returns the lifecycle manager.
func (m *Module) Router() *router.Router {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Router
}

// Registry returns the handler registry.
func (m *Module) Registry() *dispatcher.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Registry
}

// Commands returns the go-command registry.
func (m *Module) Commands() *commands.Registry {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands
}

// History returns the route record repository.
func (m *Module) History() store.RouteRecordRepository {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Storage.Routes
}

// LinkFeed returns the in-process link platform, or nil when the host
// supplied its own.
func (m *Module) LinkFeed() *sources.LinkFeed {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.LinkFeed
}

// NotificationFeed returns the in-process notification platform, or nil when
// the host supplied its own.
func (m *Module) NotificationFeed() *sources.NotificationFeed {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.NotificationFeed
}

// Config returns the effective module configuration.
func (m *Module) Config() config.Config {
	if m == nil || m.container == nil {
		return config.Config{}
	}
	return m.container.Config
}

// Container returns the internal DI container.
// This is exposed for advanced use cases like direct storage access.
func (m *Module) Container() *di.Container {
	if m == nil {
		return nil
	}
	return m.container
}
