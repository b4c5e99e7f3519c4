package commands

import (
	command "github.com/goliatone/go-command"
	internalcommands "github.com/goliatone/go-linkrouter/internal/commands"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/router"
)

// Re-export request types so consumers need not import internal packages.
type (
	DeliverLink         = internalcommands.DeliverLink
	DeliverNotification = internalcommands.DeliverNotification
	InitRouter          = internalcommands.InitRouter
	CleanupRouter       = internalcommands.CleanupRouter
	Receipt             = internalcommands.Receipt
)

// Registry exposes go-command compatible handlers backed by the router.
type Registry struct {
	Catalog             *internalcommands.Catalog
	DeliverLink         command.Commander[DeliverLink]
	DeliverNotification command.Commander[DeliverNotification]
	InitRouter          command.Commander[InitRouter]
	CleanupRouter       command.Commander[CleanupRouter]
}

// Dependencies mirror the internal command dependencies but keep them public.
type Dependencies struct {
	Router *router.Router
	Logger logger.Logger
}

// New builds the registry using the provided dependencies.
func New(deps Dependencies) (*Registry, error) {
	if deps.Router == nil {
		return nil, internalcommands.ErrMissingRouter
	}
	catalog, err := internalcommands.NewCatalog(internalcommands.Dependencies{
		Router: deps.Router,
		Logger: deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Registry{
		Catalog:             catalog,
		DeliverLink:         catalog.DeliverLink,
		DeliverNotification: catalog.DeliverNotification,
		InitRouter:          catalog.InitRouter,
		CleanupRouter:       catalog.CleanupRouter,
	}, nil
}

// Commanders returns every handler so callers can register them with go-command registries.
func (r *Registry) Commanders() []any {
	if r == nil {
		return nil
	}
	return []any{
		r.DeliverLink,
		r.DeliverNotification,
		r.InitRouter,
		r.CleanupRouter,
	}
}
