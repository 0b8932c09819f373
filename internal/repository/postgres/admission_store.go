package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clubevents/internal/domain"
)

type admissionStore struct {
	DB *sql.DB
}

// NewAdmissionStore returns an AdmissionStore that runs each critical section in a
// SERIALIZABLE transaction holding a row lock on the event.
func NewAdmissionStore(db *sql.DB) domain.AdmissionStore {
	return &admissionStore{DB: db}
}

func (s *admissionStore) WithinEvent(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.AdmissionTx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin admission tx: %w", mapDBError(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lockedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", mapDBError(err))
	}

	err = fn(ctx, domain.AdmissionTx{
		Events:       NewEventRepository(tx),
		Participants: NewParticipantRepository(tx),
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit admission tx: %w", mapDBError(err))
	}
	return nil
}
