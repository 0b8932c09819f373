package postgres

import (
	"context"
	"database/sql"
	"errors"

	"clubevents/internal/domain"
)

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db DBTX) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `id, name, date, seat_capacity, parking_capacity, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, date, seat_capacity, parking_capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Name, e.Date, nullInt(e.SeatCapacity), nullInt(e.ParkingCapacity), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

// UpdateCapacity replaces both capacities; a nil value clears the column (treated as 0).
func (r *eventRepository) UpdateCapacity(ctx context.Context, id string, seatCapacity, parkingCapacity *int) (*domain.Event, error) {
	query := `
		UPDATE events SET seat_capacity = $2, parking_capacity = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + eventColumns
	return scanEvent(r.DB.QueryRowContext(ctx, query, id, nullInt(seatCapacity), nullInt(parkingCapacity)))
}

func scanEvent(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var seatNull, parkingNull sql.NullInt64
	err := row.Scan(&e.ID, &e.Name, &e.Date, &seatNull, &parkingNull, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapDBError(err)
	}
	e.SeatCapacity = intFromNull(seatNull)
	e.ParkingCapacity = intFromNull(parkingNull)
	return e, nil
}
