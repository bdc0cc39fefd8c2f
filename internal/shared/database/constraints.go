package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Invariants the ledgers rely on that AutoMigrate cannot express
var constraintStatements = []string{
	// At most one RESERVED row per seat slot; released rows keep their history
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_seat_reservations_reserved_slot
		ON seat_reservations (chart_id, section_id, row_id, seat_id)
		WHERE status = 'RESERVED'`,

	`CREATE INDEX IF NOT EXISTS idx_seat_reservations_chart_status
		ON seat_reservations (chart_id, status)`,

	`ALTER TABLE ticket_tiers DROP CONSTRAINT IF EXISTS chk_ticket_tiers_sold_within_quantity`,
	`ALTER TABLE ticket_tiers ADD CONSTRAINT chk_ticket_tiers_sold_within_quantity
		CHECK (sold <= quantity)`,

	`ALTER TABLE ticket_bundles DROP CONSTRAINT IF EXISTS chk_ticket_bundles_sold_within_quantity`,
	`ALTER TABLE ticket_bundles ADD CONSTRAINT chk_ticket_bundles_sold_within_quantity
		CHECK (sold <= total_quantity)`,

	`ALTER TABLE organizer_credits DROP CONSTRAINT IF EXISTS chk_organizer_credits_balanced`,
	`ALTER TABLE organizer_credits ADD CONSTRAINT chk_organizer_credits_balanced
		CHECK (credits_total = credits_used + credits_remaining)`,

	// One commission SALE per order, whichever staff member it went to
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_staff_sales_order_sale
		ON staff_sales (order_id) WHERE kind = 'SALE'`,

	// The sweeper scans PENDING orders oldest first
	`CREATE INDEX IF NOT EXISTS idx_orders_pending_created
		ON orders (created_at) WHERE status = 'PENDING'`,
}

// MigrateConstraints adds the concurrency-critical constraints and indexes
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}
	return nil
}
