package spot

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusOccupied  Status = "occupied"
	StatusSelected  Status = "selected"
	StatusReserved  Status = "reserved"
)

type ParkingLot struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ParkingSpot struct {
	ID              string      `db:"id" json:"id"`
	LotID           string      `db:"lot_id" json:"lot_id"`
	Label           string      `db:"label" json:"label"`
	Status          Status      `db:"status" json:"status"`
	ReservationInfo null.String `db:"reservation_info" json:"reservation_info"`
	Position        int         `db:"position" json:"position"`
}

type CreateLotRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Address string `json:"address" binding:"required,max=255"`
}

type CreateSpotRequest struct {
	Label           string `json:"label" binding:"required,max=16"`
	Status          Status `json:"status" binding:"omitempty,oneof=available occupied selected reserved"`
	ReservationInfo string `json:"reservation_info" binding:"max=255"`
	Position        int    `json:"position" binding:"min=0"`
}
