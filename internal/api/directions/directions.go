package directions

import (
	"context"

	"github.com/wanderoute/trip-route-api/internal/planner"
)

// Leg is the travel geometry between two consecutive stops.
type Leg struct {
	DistanceKm float64
	Path       []planner.Coordinate
}

// Provider supplies leg geometry between two coordinates. The sequencer
// never calls a provider; it only decorates already-ordered routes, so
// implementations are free to hit an external directions service.
type Provider interface {
	Leg(ctx context.Context, from, to planner.Coordinate) (Leg, error)
}

// Geocoder resolves a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (planner.Coordinate, error)
}

// GreatCircle is the vendor-free default Provider: straight spherical
// segments priced by haversine distance.
type GreatCircle struct{}

var _ Provider = GreatCircle{}

func (GreatCircle) Leg(_ context.Context, from, to planner.Coordinate) (Leg, error) {
	return Leg{
		DistanceKm: planner.Haversine(from, to),
		Path:       []planner.Coordinate{from, to},
	}, nil
}
