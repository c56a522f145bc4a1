package types

import (
	"time"

	"github.com/google/uuid"
)

// Place is the backend's place record, consumed read-only. Coordinates are
// optional; a place without them cannot participate in route geometry.
type Place struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Category  string    `json:"category"`
	Address   string    `json:"address,omitempty"`
}

// HasCoordinates reports whether the place carries a usable location.
func (p *Place) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// ItineraryItem associates a place with a day of a saved itinerary.
// LockOrder is the 1-based position within the day and is only meaningful
// when Locked is true.
type ItineraryItem struct {
	PlaceID   uuid.UUID `json:"place_id"`
	DayNumber int       `json:"day_number"`
	Position  int       `json:"position"`
	Locked    bool      `json:"locked"`
	LockOrder int       `json:"lock_order,omitempty"`
}

// Itinerary is a saved multi-day trip owned by the backend.
type Itinerary struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Items     []ItineraryItem `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
