// Package app wires repositories and services into one settlement engine.
package app

import (
	"ticketcore/internal/analytics"
	"ticketcore/internal/bundles"
	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/notifications"
	"ticketcore/internal/orders"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/database/memory"
	"ticketcore/internal/shared/txn"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/cache"
	"ticketcore/pkg/logger"

	"gorm.io/gorm"
)

// Repositories is the storage layer shared by every service
type Repositories struct {
	Tx      txn.Manager
	Events  events.Repository
	Tiers   tiers.Repository
	Credits credits.Repository
	Seats   seats.Repository
	Bundles bundles.Repository
	Staff   staff.Repository
	Orders  orders.Repository
}

// PostgresRepositories backs every repository with gorm
func PostgresRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Tx:      txn.NewGormManager(db),
		Events:  events.NewRepository(db),
		Tiers:   tiers.NewRepository(db),
		Credits: credits.NewRepository(db),
		Seats:   seats.NewRepository(db),
		Bundles: bundles.NewRepository(db),
		Staff:   staff.NewRepository(db),
		Orders:  orders.NewRepository(db),
	}
}

// MemoryRepositories backs every repository with one in-process store
func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Tx:      store,
		Events:  store.Events(),
		Tiers:   store.Tiers(),
		Credits: store.Credits(),
		Seats:   store.Seats(),
		Bundles: store.Bundles(),
		Staff:   store.Staff(),
		Orders:  store.Orders(),
	}
}

// Infra holds the optional collaborators. Nil Cache, Locker or Publisher disable that concern.
type Infra struct {
	Cache     cache.Service
	Locker    orders.CompletionLocker
	Publisher notifications.Publisher
}

type Services struct {
	Events  events.Service
	Tiers   tiers.Service
	Credits credits.Service
	Seats   seats.Service
	Bundles bundles.Service
	Staff   staff.Service
	Orders  orders.Service

	Analytics analytics.Service
}

// NewServices builds the ledgers bottom-up: credits, tiers, seats, bundles, staff, then orders.
func NewServices(cfg *config.Config, repos Repositories, infra Infra, log *logger.Logger) *Services {
	publisher := infra.Publisher
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}

	eventService := events.NewService(repos.Events, log)
	creditService := credits.NewService(repos.Credits, repos.Tx, cfg.Credits, publisher, log)
	tierService := tiers.NewService(repos.Tiers, repos.Tx, eventService, creditService, infra.Cache, log)
	seatService := seats.NewService(repos.Seats, repos.Tx, eventService, log)
	bundleService := bundles.NewService(repos.Bundles, eventService, tierService, infra.Cache, log)
	staffService := staff.NewService(repos.Staff, repos.Tx, eventService, orders.NewStaffAttribution(repos.Orders), log)

	orderService := orders.NewService(orders.Dependencies{
		Repo:      repos.Orders,
		Tx:        repos.Tx,
		Events:    eventService,
		Tiers:     tierService,
		Seats:     seatService,
		Bundles:   bundleService,
		Staff:     staffService,
		Locker:    infra.Locker,
		Publisher: publisher,
		Fees:      cfg.Fees,
		Config:    cfg.Orders,
		Log:       log,
	})

	return &Services{
		Events:  eventService,
		Tiers:   tierService,
		Credits: creditService,
		Seats:   seatService,
		Bundles: bundleService,
		Staff:   staffService,
		Orders:  orderService,

		Analytics: analytics.NewService(eventService, tierService, repos.Orders, infra.Cache, log),
	}
}
