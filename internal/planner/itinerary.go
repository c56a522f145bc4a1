package planner

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// DayAssignment schedules a waypoint on a specific itinerary day.
type DayAssignment struct {
	Waypoint  Waypoint
	DayNumber int
	Lock      Lock
}

// DayRoute is the optimized route for one itinerary day. Origin is the
// day's first assignment in input order; it anchors the route and is never
// reordered.
type DayRoute struct {
	DayNumber int
	Origin    Waypoint
	Route     Result
}

// OptimizeItinerary partitions assignments by day number and sequences
// each day independently and concurrently. Days never share state, so a
// waypoint is never moved across days. Results come back sorted by day
// number ascending.
func OptimizeItinerary(ctx context.Context, assignments []DayAssignment) ([]DayRoute, error) {
	byDay := make(map[int][]DayAssignment)
	days := make([]int, 0)
	for _, a := range assignments {
		if _, seen := byDay[a.DayNumber]; !seen {
			days = append(days, a.DayNumber)
		}
		byDay[a.DayNumber] = append(byDay[a.DayNumber], a)
	}
	sort.Ints(days)

	routes := make([]DayRoute, len(days))
	g, ctx := errgroup.WithContext(ctx)
	for i, day := range days {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			group := byDay[day]
			origin := group[0]
			rest := group[1:]

			places := make([]Waypoint, len(rest))
			locks := make([]Lock, len(rest))
			for j, a := range rest {
				places[j] = a.Waypoint
				locks[j] = a.Lock
			}

			routes[i] = DayRoute{
				DayNumber: day,
				Origin:    origin.Waypoint,
				Route:     Sequence(origin.Waypoint.Location, places, locks),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return routes, nil
}
