// Package apptest builds a fully wired engine on the in-memory store for scenario tests.
package apptest

import (
	"context"
	"testing"
	"time"

	"ticketcore/internal/app"
	"ticketcore/internal/events"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/database/memory"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type Harness struct {
	*app.Services
	Store  *memory.Store
	Config *config.Config
}

// Config returns settings with zero fees so order totals equal face value
func Config() *config.Config {
	return &config.Config{
		Fees: config.FeeConfig{
			PlatformPercent:   decimal.Zero,
			ProcessingPercent: decimal.Zero,
			Currency:          "USD",
		},
		Credits: config.CreditConfig{FreeFirstEventCredits: 300, PriceCentsPerCredit: 50},
		Orders: config.OrderConfig{
			PendingTTL:         30 * time.Minute,
			SweepBatchSize:     50,
			TicketCodeAttempts: 5,
		},
	}
}

func New(t testing.TB) *Harness {
	return NewWithInfra(t, Config(), app.Infra{})
}

func NewWithInfra(t testing.TB, cfg *config.Config, infra app.Infra) *Harness {
	t.Helper()
	store := memory.NewStore()
	return &Harness{
		Services: app.NewServices(cfg, app.MemoryRepositories(store), infra, logger.Discard()),
		Store:    store,
		Config:   cfg,
	}
}

func Organizer() identity.Actor { return identity.New(uuid.New(), identity.RoleOrganizer) }

func Buyer() identity.Actor { return identity.New(uuid.New(), identity.RoleUser) }

// Event creates a published event owned by organizer
func (h *Harness) Event(t testing.TB, organizer identity.Actor, req events.CreateEventRequest) *events.Event {
	t.Helper()
	ctx := context.Background()
	if req.Name == "" {
		req.Name = "Launch Night"
	}
	if req.StartsAt.IsZero() {
		req.StartsAt = time.Now().Add(30 * 24 * time.Hour)
	}
	event, err := h.Events.CreateEvent(ctx, organizer, req)
	require.NoError(t, err)
	event, err = h.Events.UpdateStatus(ctx, organizer, event.ID, events.EventStatusPublished)
	require.NoError(t, err)
	return event
}

func (h *Harness) Tier(t testing.TB, organizer identity.Actor, eventID uuid.UUID, name string, priceCents int64, quantity int) *tiers.TicketTier {
	t.Helper()
	tier, err := h.Tiers.CreateTier(context.Background(), organizer, tiers.CreateTierRequest{
		EventID:    eventID,
		Name:       name,
		PriceCents: priceCents,
		Quantity:   quantity,
	})
	require.NoError(t, err)
	return tier
}

// Chart creates a one-section chart with the given seats per row
func (h *Harness) Chart(t testing.TB, organizer identity.Actor, eventID uuid.UUID, rows map[string][]string) *seats.SeatingChart {
	t.Helper()
	section := seats.Section{ID: "A", Name: "Stalls"}
	for rowID, seatIDs := range rows {
		row := seats.Row{ID: rowID}
		for _, seatID := range seatIDs {
			row.Seats = append(row.Seats, seats.Seat{ID: seatID, Type: seats.SeatTypeStandard})
		}
		section.Rows = append(section.Rows, row)
	}
	chart, err := h.Seats.CreateChart(context.Background(), organizer, seats.CreateChartRequest{
		EventID:  eventID,
		Name:     "Main Hall",
		Sections: []seats.Section{section},
	})
	require.NoError(t, err)
	return chart
}

func Seat(row, seat string) seats.SeatRef {
	return seats.SeatRef{SectionID: "A", RowID: row, SeatID: seat}
}
