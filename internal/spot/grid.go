package spot

import (
	"io"

	"parkreserve/internal/web"
)

const baseClass = "spot-tile"

type statusStyle struct {
	class string
	icon  string
}

var statusStyles = map[Status]statusStyle{
	StatusAvailable: {class: "spot-available", icon: "circle-parking"},
	StatusOccupied:  {class: "spot-occupied", icon: "circle-parking-off"},
	StatusReserved:  {class: "spot-reserved", icon: "circle-parking"},
}

var selectedStyle = statusStyle{class: "spot-selected", icon: "check-circle"}

// Tile is the render model of one spot.
type Tile struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Status          Status `json:"status"`
	Class           string `json:"class"`
	Icon            string `json:"icon,omitempty"`
	Selected        bool   `json:"selected"`
	Clickable       bool   `json:"clickable"`
	AriaDisabled    bool   `json:"aria_disabled"`
	ReservationInfo string `json:"reservation_info,omitempty"`
	SelectURL       string `json:"select_url,omitempty"`
}

type Grid struct {
	Tiles []Tile `json:"tiles"`
}

// BuildGrid maps spots to tiles in input order. A tile is clickable only when
// its spot is available; being selected changes the style, never clickability.
func BuildGrid(spots []ParkingSpot, selectedID string) Grid {
	tiles := make([]Tile, 0, len(spots))
	for _, s := range spots {
		clickable := s.Status == StatusAvailable
		selected := selectedID != "" && s.ID == selectedID

		style := statusStyles[s.Status]
		if selected {
			style = selectedStyle
		}

		class := baseClass
		if style.class != "" {
			class += " " + style.class
		}

		t := Tile{
			ID:           s.ID,
			Label:        s.Label,
			Status:       s.Status,
			Class:        class,
			Icon:         style.icon,
			Selected:     selected,
			Clickable:    clickable,
			AriaDisabled: !clickable,
		}
		if s.Status == StatusReserved && s.ReservationInfo.Valid && s.ReservationInfo.String != "" {
			t.ReservationInfo = s.ReservationInfo.String
		}
		if clickable {
			t.SelectURL = "/lots/" + s.LotID + "/spots/" + s.ID + "/select"
		}
		tiles = append(tiles, t)
	}
	return Grid{Tiles: tiles}
}

// Select calls onSelect with id when the spot exists and is available, and
// reports whether it did. spots is only read.
func Select(spots []ParkingSpot, id string, onSelect func(id string)) bool {
	for i := range spots {
		if spots[i].ID != id {
			continue
		}
		if spots[i].Status != StatusAvailable {
			return false
		}
		if onSelect != nil {
			onSelect(id)
		}
		return true
	}
	return false
}

func (g Grid) Render(w io.Writer) error {
	return web.Templates().ExecuteTemplate(w, "grid", g)
}
