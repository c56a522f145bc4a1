package directions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderoute/trip-route-api/internal/planner"
)

func TestGreatCircleLeg(t *testing.T) {
	from := planner.Coordinate{Latitude: 37.5665, Longitude: 126.9780}
	to := planner.Coordinate{Latitude: 37.5796, Longitude: 126.9770}

	leg, err := GreatCircle{}.Leg(context.Background(), from, to)
	require.NoError(t, err)

	assert.Equal(t, planner.Haversine(from, to), leg.DistanceKm)
	require.Len(t, leg.Path, 2)
	assert.Equal(t, from, leg.Path[0])
	assert.Equal(t, to, leg.Path[1])
}
