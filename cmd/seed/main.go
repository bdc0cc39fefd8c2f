package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"ticketcore/internal/app"
	"ticketcore/internal/auth"
	"ticketcore/internal/bundles"
	"ticketcore/internal/events"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/database"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Fixed organizer so tokens minted for local testing stay valid across reseeds
var demoOrganizerID = uuid.MustParse("5f0c3a52-9d1e-4b7a-8a57-1d2f6a0b9c11")

type Seeder struct {
	services  *app.Services
	organizer identity.Actor
	log       *logger.Logger
}

func main() {
	// Load config
	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.NewWithWriter(log.Writer(), cfg.LogLevel)

	// Connect and migrate
	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Start from empty tables
	if err := cleanDatabase(db); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	appLogger.Info("Database cleaned")

	seeder := &Seeder{
		services:  app.NewServices(cfg, app.PostgresRepositories(db.PostgreSQL), app.Infra{}, appLogger),
		organizer: identity.New(demoOrganizerID, identity.RoleOrganizer),
		log:       appLogger,
	}
	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	// Token for calling the API as the demo organizer
	token, err := auth.IssueAccessToken(cfg.JWT.Secret, seeder.organizer, 24*time.Hour)
	if err != nil {
		log.Fatalf("Failed to issue organizer token: %v", err)
	}
	appLogger.Info("Seeding completed",
		slog.String("organizer_id", demoOrganizerID.String()),
		slog.String("organizer_token", token),
	)
}

// cleanDatabase truncates every ledger table
func cleanDatabase(db *database.DB) error {
	tables := []string{
		"tickets",
		"order_items",
		"orders",
		"staff_sales",
		"event_staff",
		"ticket_bundles",
		"seat_reservations",
		"seating_charts",
		"credit_allocations",
		"credit_transactions",
		"organizer_credits",
		"ticket_tiers",
		"events",
	}
	for _, table := range tables {
		if err := db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll creates a seated paid concert, a credit-funded festival, two bundles, a free
// meetup and two staff members
func (s *Seeder) SeedAll(ctx context.Context) error {
	// Seated concert, pay as you sell
	concert, err := s.event(ctx, "Harbour Lights Live", events.PaymentModelPayAsYouSell, false, 21)
	if err != nil {
		return err
	}
	general, err := s.tier(ctx, concert.ID, "General Admission", 4500, 400)
	if err != nil {
		return err
	}
	vip, err := s.tier(ctx, concert.ID, "VIP", 12000, 40)
	if err != nil {
		return err
	}
	if err := s.chart(ctx, concert.ID); err != nil {
		return err
	}

	// Festival on pre-purchased credits; its 250 passes come out of the free first-event grant
	festival, err := s.event(ctx, "Northshore Weekender", events.PaymentModelPrePurchase, false, 60)
	if err != nil {
		return err
	}
	dayPass, err := s.tier(ctx, festival.ID, "Day Pass", 6000, 250)
	if err != nil {
		return err
	}

	// Bundles
	if _, err := s.services.Bundles.CreateBundle(ctx, s.organizer, bundles.CreateBundleRequest{
		Name:          "Concert VIP Pair",
		Type:          bundles.BundleTypeSingleEvent,
		EventID:       &concert.ID,
		IncludedTiers: []bundles.IncludedTier{{TierID: vip.ID, Quantity: 2}},
		PriceCents:    21000,
		TotalQuantity: 10,
	}); err != nil {
		return fmt.Errorf("failed to create single-event bundle: %w", err)
	}
	if _, err := s.services.Bundles.CreateBundle(ctx, s.organizer, bundles.CreateBundleRequest{
		Name:     "Season Opener",
		Type:     bundles.BundleTypeMultiEvent,
		EventIDs: []uuid.UUID{concert.ID, festival.ID},
		IncludedTiers: []bundles.IncludedTier{
			{TierID: general.ID, Quantity: 1},
			{TierID: dayPass.ID, Quantity: 1},
		},
		PriceCents:    9000,
		TotalQuantity: 50,
	}); err != nil {
		return fmt.Errorf("failed to create multi-event bundle: %w", err)
	}

	// Free event
	meetup, err := s.event(ctx, "Community Open Mic", events.PaymentModelPayAsYouSell, true, 7)
	if err != nil {
		return err
	}
	if _, err := s.tier(ctx, meetup.ID, "Free Entry", 0, 80); err != nil {
		return err
	}

	// Staff: one event-scoped fixed commission, one organizer-wide percentage
	for _, member := range []staff.CreateStaffRequest{
		{EventID: &concert.ID, Name: "Box Office", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(150), ReferralCode: "BOXOFFICE"},
		{Name: "Street Team", CommissionType: staff.CommissionPercentage, CommissionValue: decimal.NewFromFloat(7.5), ReferralCode: "STREET"},
	} {
		created, err := s.services.Staff.CreateStaff(ctx, s.organizer, member)
		if err != nil {
			return fmt.Errorf("failed to create staff %q: %w", member.Name, err)
		}
		s.log.Info("Staff seeded", slog.String("name", created.Name), slog.String("referral_code", created.ReferralCode))
	}
	return nil
}

func (s *Seeder) event(ctx context.Context, name string, model events.PaymentModel, free bool, inDays int) (*events.Event, error) {
	event, err := s.services.Events.CreateEvent(ctx, s.organizer, events.CreateEventRequest{
		Name:         name,
		StartsAt:     time.Now().UTC().AddDate(0, 0, inDays).Truncate(time.Hour),
		IsFree:       free,
		PaymentModel: model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create event %q: %w", name, err)
	}
	// Publish so it is on sale
	if event, err = s.services.Events.UpdateStatus(ctx, s.organizer, event.ID, events.EventStatusPublished); err != nil {
		return nil, fmt.Errorf("failed to publish event %q: %w", name, err)
	}
	s.log.Info("Event seeded", slog.String("name", name), slog.String("event_id", event.ID.String()))
	return event, nil
}

func (s *Seeder) tier(ctx context.Context, eventID uuid.UUID, name string, priceCents int64, quantity int) (*tiers.TicketTier, error) {
	tier, err := s.services.Tiers.CreateTier(ctx, s.organizer, tiers.CreateTierRequest{
		EventID:    eventID,
		Name:       name,
		PriceCents: priceCents,
		Quantity:   quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tier %q: %w", name, err)
	}
	return tier, nil
}

// chart seeds a small two-section hall with an accessible row and one blocked seat
func (s *Seeder) chart(ctx context.Context, eventID uuid.UUID) error {
	row := func(id string, count int, seatType seats.SeatType) seats.Row {
		r := seats.Row{ID: id, Label: "Row " + id}
		for i := 1; i <= count; i++ {
			r.Seats = append(r.Seats, seats.Seat{ID: fmt.Sprint(i), Type: seatType})
		}
		return r
	}

	stalls := seats.Section{ID: "STALLS", Name: "Stalls", Rows: []seats.Row{
		row("A", 12, seats.SeatTypeStandard),
		row("B", 12, seats.SeatTypeStandard),
		row("W", 4, seats.SeatTypeWheelchair),
	}}
	stalls.Rows[1].Seats[5].Type = seats.SeatTypeBlocked
	balcony := seats.Section{ID: "BALCONY", Name: "Balcony", Rows: []seats.Row{
		row("A", 8, seats.SeatTypeVIP),
	}}

	chart, err := s.services.Seats.CreateChart(ctx, s.organizer, seats.CreateChartRequest{
		EventID:  eventID,
		Name:     "Main Hall",
		Sections: []seats.Section{stalls, balcony},
	})
	if err != nil {
		return fmt.Errorf("failed to create seating chart: %w", err)
	}
	s.log.Info("Seating chart seeded", slog.String("chart_id", chart.ID.String()), slog.Int("total_seats", chart.TotalSeats))
	return nil
}
