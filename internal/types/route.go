package types

import "errors"

// Boundary validation errors. The planner itself never fails on
// well-formed input, so malformed requests are rejected here before the
// pure core runs.
var (
	ErrMissingOriginCoordinates = errors.New("origin coordinates are required")
	ErrNoPlaces                 = errors.New("at least one place is required")
	ErrInvalidDayNumber         = errors.New("day number must be a positive integer")
)

// RoutePlaceInput is one candidate stop in an optimize request. Latitude
// and longitude are pointers so a missing coordinate is distinguishable
// from zero; places without coordinates are skipped and reported back.
type RoutePlaceInput struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Category  string   `json:"category,omitempty"`
	Locked    bool     `json:"locked"`
	LockOrder int      `json:"lock_order,omitempty"`
}

// HasCoordinates reports whether the input carries a usable location.
func (p *RoutePlaceInput) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// OptimizeDayRequest asks for a visiting order over one day's places,
// starting from a fixed origin.
type OptimizeDayRequest struct {
	Origin RoutePlaceInput   `json:"origin"`
	Places []RoutePlaceInput `json:"places"`
}

// RouteLeg is one segment of the optimized chain.
type RouteLeg struct {
	From       string      `json:"from"`
	To         string      `json:"to"`
	DistanceKm float64     `json:"distance_km"`
	Path       [][]float64 `json:"path,omitempty"` // [lat, lng] pairs from the directions provider
}

// OptimizeDayResponse is the sequencer's output for one day. Order is a
// permutation of the request's place indices after skipped places are
// removed.
type OptimizeDayResponse struct {
	Order           []int      `json:"order"`
	OptimizedIDs    []string   `json:"optimized_ids"`
	OptimizedNames  []string   `json:"optimized_names"`
	Legs            []RouteLeg `json:"legs"`
	TotalDistanceKm float64    `json:"total_distance_km"`
	Skipped         []string   `json:"skipped,omitempty"`
}

// DayAssignmentInput schedules one place on one itinerary day.
type DayAssignmentInput struct {
	RoutePlaceInput
	DayNumber int `json:"day_number"`
}

// OptimizeItineraryRequest asks for per-day routes over a multi-day set
// of assignments. Days are optimized independently; nothing ever moves
// across days.
type OptimizeItineraryRequest struct {
	Assignments []DayAssignmentInput `json:"assignments"`
}

// DayRouteResponse is one day's optimized route.
type DayRouteResponse struct {
	DayNumber       int        `json:"day_number"`
	OriginName      string     `json:"origin_name"`
	Order           []int      `json:"order"`
	OptimizedIDs    []string   `json:"optimized_ids"`
	OptimizedNames  []string   `json:"optimized_names"`
	Legs            []RouteLeg `json:"legs"`
	TotalDistanceKm float64    `json:"total_distance_km"`
	Skipped         []string   `json:"skipped,omitempty"`
}

// OptimizeItineraryResponse aggregates per-day routes and the grand total.
type OptimizeItineraryResponse struct {
	Days            []DayRouteResponse `json:"days"`
	TotalDistanceKm float64            `json:"total_distance_km"`
}

// DistanceResponse is the payload of the haversine support endpoint.
type DistanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
}
