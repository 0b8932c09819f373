package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/domain"
)

type participantRepository struct {
	DB DBTX
}

func NewParticipantRepository(db DBTX) domain.ParticipantRepository {
	return &participantRepository{DB: db}
}

const participantColumns = `id, event_id, user_id, status, parking, parking_requested, created_at, updated_at`

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE id = $1
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *participantRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')
	`
	p, err := scanParticipant(r.DB.QueryRowContext(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapDBError(err)
	}
	return p, nil
}

func (r *participantRepository) ListActive(ctx context.Context, eventID, excludeID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1 AND status IN ('pending', 'confirmed')`
	args := []any{eventID}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += `
		ORDER BY created_at, id`
	return r.list(ctx, query, args...)
}

func (r *participantRepository) ListPending(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE event_id = $1 AND status = 'pending'
		ORDER BY created_at, id
	`
	return r.list(ctx, query, eventID)
}

func (r *participantRepository) Insert(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (event_id, user_id, status, parking, parking_requested, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		p.EventID, p.UserID, string(p.Status), nullBool(p.Parking), p.ParkingRequested, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return fmt.Errorf("%w: user already holds an active participation", domain.ErrConcurrencyConflict)
		}
		return mapDBError(err)
	}
	return nil
}

func (r *participantRepository) UpdateStatusAndParking(ctx context.Context, id string, status domain.ParticipantStatus, parking *bool) error {
	query := `
		UPDATE participants SET status = $2, parking = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, id, string(status), nullBool(parking))
	if err != nil {
		return mapDBError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) UpdateParkingRequested(ctx context.Context, id string, requested bool) error {
	query := `UPDATE participants SET parking_requested = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, requested)
	if err != nil {
		return mapDBError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *participantRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Participant, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	participants := make([]*domain.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	p := &domain.Participant{}
	var status string
	var parkingNull sql.NullBool
	if err := row.Scan(&p.ID, &p.EventID, &p.UserID, &status, &parkingNull, &p.ParkingRequested, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	st, err := domain.ParseParticipantStatus(status)
	if err != nil {
		return nil, err
	}
	p.Status = st
	p.Parking = boolFromNull(parkingNull)
	return p, nil
}
