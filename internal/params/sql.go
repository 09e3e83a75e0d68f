package params

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps sealed parameters in the parameters table.
type SQLStore struct {
	db     *sql.DB
	sealer *Sealer
}

// NewSQLStore creates a store over a migrated database.
func NewSQLStore(db *sql.DB, sealer *Sealer) *SQLStore {
	return &SQLStore{db: db, sealer: sealer}
}

// Get returns one parameter.
func (s *SQLStore) Get(ctx context.Context, name string) (string, error) {
	var sealed string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM parameters WHERE name = ?`, name).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &ErrParameterNotFound{Name: name}
	}
	if err != nil {
		return "", fmt.Errorf("querying parameter %s: %w", name, err)
	}
	return s.sealer.Open(name, sealed)
}

// GetParameters implements Store.
func (s *SQLStore) GetParameters(ctx context.Context, names []string) (map[string]string, error) {
	return getEach(ctx, names, s.Get)
}

// Put stores value under name, replacing any previous value.
func (s *SQLStore) Put(ctx context.Context, name, value string) error {
	if name == "" {
		return errors.New("parameter name is required")
	}
	sealed, err := s.sealer.Seal(name, value)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO parameters (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, sealed, now)
	if err != nil {
		return fmt.Errorf("storing parameter %s: %w", name, err)
	}
	return nil
}
