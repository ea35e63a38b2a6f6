package profile

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

var ErrProfileNotFound = errors.New("profile not found")

type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	// Update writes full_name and phone. The row is created when missing.
	Update(ctx context.Context, userID, fullName, phone string, updatedAt time.Time) error
}

type store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &store{db: db}
}

func (s *store) Get(ctx context.Context, userID string) (*Record, error) {
	query := `
		SELECT id, full_name, phone, updated_at
		FROM profiles
		WHERE id = $1
	`

	var rec Record
	err := s.db.GetContext(ctx, &rec, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *store) Update(ctx context.Context, userID, fullName, phone string, updatedAt time.Time) error {
	query := `
		INSERT INTO profiles (id, full_name, phone, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name, phone = EXCLUDED.phone, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		userID,
		null.NewString(fullName, fullName != ""),
		null.NewString(phone, phone != ""),
		updatedAt,
	)
	return err
}
