package seats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SeatType string

const (
	SeatTypeStandard   SeatType = "standard"
	SeatTypeWheelchair SeatType = "wheelchair"
	SeatTypeCompanion  SeatType = "companion"
	SeatTypeVIP        SeatType = "vip"
	SeatTypeBlocked    SeatType = "blocked"
	SeatTypeStanding   SeatType = "standing"
	SeatTypeParking    SeatType = "parking"
	SeatTypeTent       SeatType = "tent"
)

func (t SeatType) IsValid() bool {
	switch t {
	case SeatTypeStandard, SeatTypeWheelchair, SeatTypeCompanion, SeatTypeVIP,
		SeatTypeBlocked, SeatTypeStanding, SeatTypeParking, SeatTypeTent:
		return true
	}
	return false
}

// Display statuses. These are advisory only; SeatReservation rows decide who holds a seat.
const (
	SeatStatusAvailable = "available"
	SeatStatusReserved  = "reserved"
	SeatStatusBlocked   = "blocked"
)

type Seat struct {
	ID     string   `json:"id" validate:"required,max=64"`
	Label  string   `json:"label,omitempty" validate:"max=64"`
	Type   SeatType `json:"type" validate:"required"`
	Status string   `json:"status,omitempty"`
}

type Row struct {
	ID    string `json:"id" validate:"required,max=64"`
	Label string `json:"label,omitempty" validate:"max=64"`
	Seats []Seat `json:"seats" validate:"required,min=1,dive"`
}

type Section struct {
	ID   string `json:"id" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=255"`
	Rows []Row  `json:"rows" validate:"required,min=1,dive"`
}

// SeatingChart belongs to one event and owns the Section -> Row -> Seat tree
type SeatingChart struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID `json:"event_id" gorm:"type:uuid;uniqueIndex;not null"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Sections      []Section `json:"sections" gorm:"type:jsonb;serializer:json;not null"`
	TotalSeats    int       `json:"total_seats" gorm:"not null;default:0"`
	ReservedSeats int       `json:"reserved_seats" gorm:"not null;default:0;check:reserved_seats >= 0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (SeatingChart) TableName() string {
	return "seating_charts"
}

// SeatRef identifies one seat slot within a chart
type SeatRef struct {
	SectionID string `json:"section_id" validate:"required"`
	RowID     string `json:"row_id" validate:"required"`
	SeatID    string `json:"seat_id" validate:"required"`
}

func (r SeatRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.SectionID, r.RowID, r.SeatID)
}

// Find returns the seat addressed by ref
func (c *SeatingChart) Find(ref SeatRef) (*Seat, bool) {
	for si := range c.Sections {
		section := &c.Sections[si]
		if section.ID != ref.SectionID {
			continue
		}
		for ri := range section.Rows {
			row := &section.Rows[ri]
			if row.ID != ref.RowID {
				continue
			}
			for i := range row.Seats {
				if row.Seats[i].ID == ref.SeatID {
					return &row.Seats[i], true
				}
			}
		}
	}
	return nil, false
}

func (c *SeatingChart) countSeats() int {
	total := 0
	for _, section := range c.Sections {
		for _, row := range section.Rows {
			total += len(row.Seats)
		}
	}
	return total
}

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "RESERVED"
	ReservationReleased  ReservationStatus = "RELEASED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// SeatReservation is the authoritative holder of a seat slot.
// A partial unique index allows at most one RESERVED row per slot.
type SeatReservation struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	ChartID   uuid.UUID         `json:"chart_id" gorm:"type:uuid;index;not null"`
	SectionID string            `json:"section_id" gorm:"size:64;not null"`
	RowID     string            `json:"row_id" gorm:"size:64;not null"`
	SeatID    string            `json:"seat_id" gorm:"size:64;not null"`
	TicketID  uuid.UUID         `json:"ticket_id" gorm:"type:uuid;index;not null"`
	OrderID   uuid.UUID         `json:"order_id" gorm:"type:uuid;index;not null"`
	Status    ReservationStatus `json:"status" gorm:"type:varchar(20);not null;check:status IN ('RESERVED', 'RELEASED', 'CANCELLED')"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (SeatReservation) TableName() string {
	return "seat_reservations"
}

func (r *SeatReservation) Ref() SeatRef {
	return SeatRef{SectionID: r.SectionID, RowID: r.RowID, SeatID: r.SeatID}
}

type CreateChartRequest struct {
	EventID  uuid.UUID `json:"event_id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=255"`
	Sections []Section `json:"sections" validate:"required,min=1,dive"`
}

type CheckSeatsRequest struct {
	Seats []SeatRef `json:"seats" validate:"required,min=1,dive"`
}

// SeatMap is a chart with each seat's effective status overlaid from reservations
type SeatMap struct {
	SeatingChart
	AvailableSeats int `json:"available_seats"`
}
