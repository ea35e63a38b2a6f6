package booking

import (
	"context"
	"time"
)

type Repository interface {
	ListForUser(ctx context.Context, userID string, filter StatusFilter) ([]Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	// TransitionDue moves bookings whose window has started or ended.
	TransitionDue(ctx context.Context, now time.Time) (Transitions, error)
}

type Transitions struct {
	Activated int64
	Completed int64
}
