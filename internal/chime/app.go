package chime

import (
	"github.com/colonyops/chime/internal/core/alarm"
	"github.com/colonyops/chime/internal/core/config"
	"github.com/colonyops/chime/internal/core/eventbus"
	"github.com/colonyops/chime/internal/data/db"
	"github.com/colonyops/chime/internal/data/stores"
)

// App is the central entry point for all chime operations. Commands
// consume App instead of cherry-picking raw dependencies.
type App struct {
	Notifier *Notifier
	Delegate *Delegate
	Registry *alarm.Registry

	Store  *stores.CenterStore
	Bus    *eventbus.EventBus
	Config *config.Config
	DB     *db.DB
}

// NewApp constructs an App from explicit dependencies.
func NewApp(
	notifier *Notifier,
	delegate *Delegate,
	registry *alarm.Registry,
	store *stores.CenterStore,
	bus *eventbus.EventBus,
	cfg *config.Config,
	database *db.DB,
) *App {
	return &App{
		Notifier: notifier,
		Delegate: delegate,
		Registry: registry,
		Store:    store,
		Bus:      bus,
		Config:   cfg,
		DB:       database,
	}
}
