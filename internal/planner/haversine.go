package planner

import "math"

// earthRadiusKm is the mean radius of the spherical earth model.
const earthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Haversine returns the great-circle distance between a and b in kilometers.
// The result is symmetric and non-negative, and zero for identical points.
func Haversine(a, b Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
