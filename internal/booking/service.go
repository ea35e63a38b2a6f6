package booking

import (
	"context"
	"errors"

	"parkreserve/internal/logger"
)

type Service interface {
	List(ctx context.Context, userID string, filter StatusFilter) ([]Booking, error)
	// Get returns ErrBookingNotFound for bookings of other users.
	Get(ctx context.Context, userID, bookingID string) (*Booking, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID string, filter StatusFilter) ([]Booking, error) {
	bookings, err := s.repo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if err := b.Validate(); err != nil {
			logger.Warn("skipping inconsistent booking", "booking_id", b.ID, "error", err)
			continue
		}
		if filter.Matches(b.Status) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, bookingID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrBookingNotFound
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Join(ErrBookingNotFound, err)
	}
	return b, nil
}
