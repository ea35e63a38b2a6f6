package spot

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

var (
	ErrLotNotFound  = errors.New("parking lot not found")
	ErrSpotNotFound = errors.New("parking spot not found")
)

type repository struct {
	db    *sqlx.DB
	newID func() string
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, newID: uuid.NewString}
}

func (r *repository) CreateLot(ctx context.Context, name, address string) (*ParkingLot, error) {
	query := `
		INSERT INTO parking_lots (id, name, address)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, created_at
	`

	var lot ParkingLot
	if err := r.db.GetContext(ctx, &lot, query, r.newID(), name, address); err != nil {
		return nil, err
	}

	return &lot, nil
}

func (r *repository) ListLots(ctx context.Context) ([]ParkingLot, error) {
	query := `
		SELECT id, name, address, created_at
		FROM parking_lots
		ORDER BY name ASC
	`

	lots := []ParkingLot{}
	if err := r.db.SelectContext(ctx, &lots, query); err != nil {
		return nil, err
	}

	return lots, nil
}

func (r *repository) GetLot(ctx context.Context, id string) (*ParkingLot, error) {
	query := `
		SELECT id, name, address, created_at
		FROM parking_lots
		WHERE id = $1
	`

	var lot ParkingLot
	err := r.db.GetContext(ctx, &lot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &lot, nil
}

func (r *repository) CreateSpot(ctx context.Context, lotID string, req CreateSpotRequest) (*ParkingSpot, error) {
	query := `
		INSERT INTO parking_spots (id, lot_id, label, status, reservation_info, position)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lot_id, label, status, reservation_info, position
	`

	status := req.Status
	if status == "" {
		status = StatusAvailable
	}

	var s ParkingSpot
	err := r.db.GetContext(ctx, &s, query,
		r.newID(), lotID, req.Label, status, null.NewString(req.ReservationInfo, req.ReservationInfo != ""), req.Position)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) ListSpots(ctx context.Context, lotID string) ([]ParkingSpot, error) {
	query := `
		SELECT id, lot_id, label, status, reservation_info, position
		FROM parking_spots
		WHERE lot_id = $1
		ORDER BY position ASC, label ASC
	`

	spots := []ParkingSpot{}
	if err := r.db.SelectContext(ctx, &spots, query, lotID); err != nil {
		return nil, err
	}

	return spots, nil
}

func (r *repository) GetSpot(ctx context.Context, lotID, spotID string) (*ParkingSpot, error) {
	query := `
		SELECT id, lot_id, label, status, reservation_info, position
		FROM parking_spots
		WHERE lot_id = $1 AND id = $2
	`

	var s ParkingSpot
	err := r.db.GetContext(ctx, &s, query, lotID, spotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSpotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}
