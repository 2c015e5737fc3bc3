package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"nhbrcforms/database"
	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
	"nhbrcforms/logging"
)

// SqliteCounterStore keeps the reference counter in the single row of reference_counter.
// Increment is atomic across every process that opens the same database file.
type SqliteCounterStore struct {
	*BaseRepository
	logger *logging.Logger
}

var _ contracts.CounterIncrementer = (*SqliteCounterStore)(nil)

// NewSqliteCounterStore creates a counter store backed by database.
func NewSqliteCounterStore(database *database.Database) contracts.CounterStore {
	return &SqliteCounterStore{
		BaseRepository: NewBaseRepository(database),
		logger:         logging.Default().WithComponent("counter_store"),
	}
}

func (s *SqliteCounterStore) Load(ctx context.Context) (int64, error) {
	var value int64
	err := s.WriteDB().QueryRowContext(ctx,
		"SELECT last_reference_number FROM reference_counter WHERE id = 1").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrCounterStateMissing
	}
	if err != nil {
		return 0, fmt.Errorf("load reference counter: %w", err)
	}
	if value < 0 {
		return 0, &CorruptStateError{Source: "reference_counter", Reason: fmt.Sprintf("negative value %d", value)}
	}
	return value, nil
}

func (s *SqliteCounterStore) Save(ctx context.Context, value int64) error {
	_, err := s.WriteDB().ExecContext(ctx, `
		INSERT INTO reference_counter (id, last_reference_number, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			last_reference_number = excluded.last_reference_number,
			updated_at = excluded.updated_at`, value)
	if err != nil {
		return fmt.Errorf("save reference counter: %w", err)
	}
	return nil
}

func (s *SqliteCounterStore) Increment(ctx context.Context, seed int64) (int64, error) {
	var next int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		// Writing first takes the database write lock before the row is read.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reference_counter (id, last_reference_number, updated_at)
			VALUES (1, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO NOTHING`, seed); err != nil {
			return fmt.Errorf("seed reference counter: %w", err)
		}

		reset, err := tx.ExecContext(ctx, `
			UPDATE reference_counter SET last_reference_number = ?
			WHERE id = 1 AND last_reference_number < 0`, seed)
		if err != nil {
			return fmt.Errorf("reset reference counter: %w", err)
		}
		if n, _ := reset.RowsAffected(); n > 0 {
			s.logger.Error("Reference counter state unreadable, starting from seed", "seed", seed)
		}

		return tx.QueryRowContext(ctx, `
			UPDATE reference_counter
			SET last_reference_number = last_reference_number + 1,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = 1
			RETURNING last_reference_number`).Scan(&next)
	})
	if err != nil {
		return 0, fmt.Errorf("increment reference counter: %w", err)
	}
	return next, nil
}
