package seats

import (
	"context"
	"errors"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Charts
	CreateChart(ctx context.Context, chart *SeatingChart) error
	GetChart(ctx context.Context, id uuid.UUID) (*SeatingChart, error)
	// GetChartForUpdate row-locks the chart. All reservation writes for a chart happen under this lock.
	GetChartForUpdate(ctx context.Context, id uuid.UUID) (*SeatingChart, error)
	GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*SeatingChart, error)
	DeleteChart(ctx context.Context, id uuid.UUID) error
	AdjustReservedSeats(ctx context.Context, chartID uuid.UUID, delta int) error

	// Reservations

	// FindReserved returns the RESERVED rows among the given slots
	FindReserved(ctx context.Context, chartID uuid.UUID, refs []SeatRef) ([]SeatReservation, error)
	ListReservedByChart(ctx context.Context, chartID uuid.UUID) ([]SeatReservation, error)
	ListReservedByTicket(ctx context.Context, ticketID uuid.UUID) ([]SeatReservation, error)
	ListReservedByOrder(ctx context.Context, orderID uuid.UUID) ([]SeatReservation, error)
	CountReserved(ctx context.Context, chartID uuid.UUID) (int64, error)
	// CreateReservations fails with ErrSeatAlreadyReserved when a slot already has a RESERVED row.
	CreateReservations(ctx context.Context, reservations []SeatReservation) error
	// Transition moves RESERVED rows to status and returns how many actually moved.
	Transition(ctx context.Context, ids []uuid.UUID, status ReservationStatus) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateChart(ctx context.Context, chart *SeatingChart) error {
	err := txn.DB(ctx, r.db).Create(chart).Error
	// One chart per event
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.InvalidInput("event %s already has a seating chart", chart.EventID)
	}
	return err
}

func (r *repository) GetChart(ctx context.Context, id uuid.UUID) (*SeatingChart, error) {
	return r.firstChart(txn.DB(ctx, r.db), "id = ?", id)
}

func (r *repository) GetChartForUpdate(ctx context.Context, id uuid.UUID) (*SeatingChart, error) {
	return r.firstChart(txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *repository) GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*SeatingChart, error) {
	return r.firstChart(txn.DB(ctx, r.db), "event_id = ?", eventID)
}

func (r *repository) firstChart(db *gorm.DB, query string, arg uuid.UUID) (*SeatingChart, error) {
	var chart SeatingChart
	if err := db.Where(query, arg).First(&chart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("seating chart", arg)
		}
		return nil, err
	}
	return &chart, nil
}

func (r *repository) DeleteChart(ctx context.Context, id uuid.UUID) error {
	return txn.DB(ctx, r.db).Where("id = ?", id).Delete(&SeatingChart{}).Error
}

func (r *repository) AdjustReservedSeats(ctx context.Context, chartID uuid.UUID, delta int) error {
	return txn.DB(ctx, r.db).Model(&SeatingChart{}).
		Where("id = ?", chartID).
		UpdateColumn("reserved_seats", gorm.Expr("GREATEST(reserved_seats + ?, 0)", delta)).Error
}

func (r *repository) reserved(ctx context.Context) *gorm.DB {
	return txn.DB(ctx, r.db).Where("status = ?", ReservationReserved)
}

func (r *repository) FindReserved(ctx context.Context, chartID uuid.UUID, refs []SeatRef) ([]SeatReservation, error) {
	var rows []SeatReservation
	if len(refs) == 0 {
		return rows, nil
	}
	tuples := make([][]interface{}, 0, len(refs))
	for _, ref := range refs {
		tuples = append(tuples, []interface{}{ref.SectionID, ref.RowID, ref.SeatID})
	}
	err := r.reserved(ctx).
		Where("chart_id = ?", chartID).
		Where("(section_id, row_id, seat_id) IN ?", tuples).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListReservedByChart(ctx context.Context, chartID uuid.UUID) ([]SeatReservation, error) {
	var rows []SeatReservation
	err := r.reserved(ctx).Where("chart_id = ?", chartID).Find(&rows).Error
	return rows, err
}

func (r *repository) ListReservedByTicket(ctx context.Context, ticketID uuid.UUID) ([]SeatReservation, error) {
	var rows []SeatReservation
	err := r.reserved(ctx).Where("ticket_id = ?", ticketID).Find(&rows).Error
	return rows, err
}

func (r *repository) ListReservedByOrder(ctx context.Context, orderID uuid.UUID) ([]SeatReservation, error) {
	var rows []SeatReservation
	err := r.reserved(ctx).Where("order_id = ?", orderID).Find(&rows).Error
	return rows, err
}

func (r *repository) CountReserved(ctx context.Context, chartID uuid.UUID) (int64, error) {
	var count int64
	err := r.reserved(ctx).Model(&SeatReservation{}).Where("chart_id = ?", chartID).Count(&count).Error
	return count, err
}

func (r *repository) CreateReservations(ctx context.Context, reservations []SeatReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	err := txn.DB(ctx, r.db).Create(&reservations).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.ErrSeatAlreadyReserved
	}
	return err
}

func (r *repository) Transition(ctx context.Context, ids []uuid.UUID, status ReservationStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := txn.DB(ctx, r.db).Model(&SeatReservation{}).
		Where("id IN ? AND status = ?", ids, ReservationReserved).
		Update("status", status)
	return int(result.RowsAffected), result.Error
}
