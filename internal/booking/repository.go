package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// selectBookings joins the lot and spot names in. is_active is derived from
// status so the two cannot disagree.
func selectBookings() sq.SelectBuilder {
	return psql.Select(
		"b.id", "b.user_id", "l.name AS parking_name", "s.label AS spot_label", "l.address",
		"b.start_time", "b.end_time", "b.duration", "b.price", "b.status",
		"b.status = 'active' AS is_active", "b.booking_code", "b.spot_id", "b.lot_id",
	).
		From("bookings b").
		Join("parking_lots l ON l.id = b.lot_id").
		Join("parking_spots s ON s.id = b.spot_id")
}

func (r *repository) ListForUser(ctx context.Context, userID string, filter StatusFilter) ([]Booking, error) {
	q := selectBookings().Where(sq.Eq{"b.user_id": userID})
	if st, ok := filter.Status(); ok {
		q = q.Where(sq.Eq{"b.status": string(st)})
	}

	query, args, err := q.OrderBy("b.start_time DESC").ToSql()
	if err != nil {
		return nil, err
	}

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := selectBookings().Where(sq.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var b Booking
	err = r.db.GetContext(ctx, &b, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *repository) TransitionDue(ctx context.Context, now time.Time) (Transitions, error) {
	var t Transitions

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return t, err
	}
	defer tx.Rollback()

	activate := psql.Update("bookings").
		Set("status", string(StatusActive)).
		Set("updated_at", now).
		Where(sq.Eq{"status": []string{string(StatusUpcoming), string(StatusReserved)}}).
		Where(sq.LtOrEq{"start_time": now})
	if t.Activated, err = execCount(ctx, tx, activate); err != nil {
		return Transitions{}, fmt.Errorf("activate bookings: %w", err)
	}

	complete := psql.Update("bookings").
		Set("status", string(StatusCompleted)).
		Set("updated_at", now).
		Where(sq.Eq{"status": string(StatusActive)}).
		Where(sq.Lt{"end_time": now})
	if t.Completed, err = execCount(ctx, tx, complete); err != nil {
		return Transitions{}, fmt.Errorf("complete bookings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Transitions{}, err
	}
	return t, nil
}

func execCount(ctx context.Context, tx *sqlx.Tx, b sq.UpdateBuilder) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
