package spot

import (
	"context"
	"errors"

	"parkreserve/internal/metrics"
)

var ErrSpotUnavailable = errors.New("parking spot is not available")

type Service interface {
	CreateLot(ctx context.Context, req CreateLotRequest) (*ParkingLot, error)
	ListLots(ctx context.Context) ([]ParkingLot, error)
	CreateSpot(ctx context.Context, lotID string, req CreateSpotRequest) (*ParkingSpot, error)
	// LotGrid loads a lot and its spots, with selectedID rendered as selected.
	LotGrid(ctx context.Context, lotID, selectedID string) (*LotGrid, error)
	// SelectSpot returns the id to carry as the current selection.
	SelectSpot(ctx context.Context, lotID, spotID string) (string, error)
}

type LotGrid struct {
	Lot      ParkingLot    `json:"lot"`
	Spots    []ParkingSpot `json:"-"`
	Grid     Grid          `json:"grid"`
	Selected string        `json:"selected,omitempty"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateLot(ctx context.Context, req CreateLotRequest) (*ParkingLot, error) {
	return s.repo.CreateLot(ctx, req.Name, req.Address)
}

func (s *service) ListLots(ctx context.Context) ([]ParkingLot, error) {
	return s.repo.ListLots(ctx)
}

func (s *service) CreateSpot(ctx context.Context, lotID string, req CreateSpotRequest) (*ParkingSpot, error) {
	if _, err := s.repo.GetLot(ctx, lotID); err != nil {
		return nil, err
	}
	return s.repo.CreateSpot(ctx, lotID, req)
}

func (s *service) LotGrid(ctx context.Context, lotID, selectedID string) (*LotGrid, error) {
	lot, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	spots, err := s.repo.ListSpots(ctx, lotID)
	if err != nil {
		return nil, err
	}

	// A selection that no longer points at an available spot is dropped.
	if selectedID != "" && !Select(spots, selectedID, nil) {
		selectedID = ""
	}

	return &LotGrid{
		Lot:      *lot,
		Spots:    spots,
		Grid:     BuildGrid(spots, selectedID),
		Selected: selectedID,
	}, nil
}

func (s *service) SelectSpot(ctx context.Context, lotID, spotID string) (string, error) {
	spots, err := s.repo.ListSpots(ctx, lotID)
	if err != nil {
		return "", err
	}

	var selected string
	if Select(spots, spotID, func(id string) { selected = id }) {
		metrics.RecordSpotSelection("selected")
		return selected, nil
	}

	for _, sp := range spots {
		if sp.ID == spotID {
			metrics.RecordSpotSelection("unavailable")
			return "", ErrSpotUnavailable
		}
	}
	metrics.RecordSpotSelection("not_found")
	return "", ErrSpotNotFound
}
