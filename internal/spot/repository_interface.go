package spot

import "context"

type Repository interface {
	CreateLot(ctx context.Context, name, address string) (*ParkingLot, error)
	ListLots(ctx context.Context) ([]ParkingLot, error)
	GetLot(ctx context.Context, id string) (*ParkingLot, error)
	CreateSpot(ctx context.Context, lotID string, req CreateSpotRequest) (*ParkingSpot, error)
	ListSpots(ctx context.Context, lotID string) ([]ParkingSpot, error)
	GetSpot(ctx context.Context, lotID, spotID string) (*ParkingSpot, error)
}
