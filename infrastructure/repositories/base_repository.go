package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nhbrcforms/database"
)

// timestampLayout is fixed width so that stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// BaseRepository provides database access and column conversions shared by the sqlite repositories.
type BaseRepository struct {
	db *database.Database
}

// NewBaseRepository creates a new BaseRepository with database access
func NewBaseRepository(database *database.Database) *BaseRepository {
	return &BaseRepository{db: database}
}

// ReadDB returns the read pool for SELECT statements.
func (b *BaseRepository) ReadDB() *sql.DB {
	return b.db.ReadDB()
}

// WriteDB returns the serialized write connection.
func (b *BaseRepository) WriteDB() *sql.DB {
	return b.db.WriteDB()
}

// WithTx executes a function within a write transaction
func (b *BaseRepository) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return b.db.WithTx(ctx, fn)
}

// ToTimestamp formats t in UTC for storage.
func (b *BaseRepository) ToTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// FromTimestamp parses a stored timestamp.
func (b *BaseRepository) FromTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// ToJSONList encodes a string slice as a JSON array; nil becomes "[]".
func (b *BaseRepository) ToJSONList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FromJSONList decodes a JSON array column. Empty input yields nil.
func (b *BaseRepository) FromJSONList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("decode stored list: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// ToNullBool converts a bool to sql.NullBool.
func (b *BaseRepository) ToNullBool(value bool) sql.NullBool {
	return sql.NullBool{Bool: value, Valid: true}
}

// FromNullBool returns false for NULL.
func (b *BaseRepository) FromNullBool(nb sql.NullBool) bool {
	return nb.Valid && nb.Bool
}
