package database

import (
	"ticketcore/internal/bundles"
	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/seats"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&tiers.TicketTier{},
		&credits.OrganizerCredits{},
		&credits.CreditTransaction{},
		&credits.CreditAllocation{},
		&seats.SeatingChart{},
		&seats.SeatReservation{},
		&bundles.TicketBundle{},
		&staff.EventStaff{},
		&staff.StaffSale{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.Ticket{},
	)
}
