package planner

import "math"

// Waypoint is a candidate stop for a single day's route. All waypoints
// handed to Sequence must carry valid coordinates; callers filter out
// places without geometry before invoking the planner.
type Waypoint struct {
	ID       string
	Name     string
	Location Coordinate
}

// Lock pins a waypoint to a fixed 1-based position in the day's sequence.
// Position 1 is the slot immediately after the day's origin.
type Lock struct {
	Locked bool
	Order  int
}

// Result is the outcome of sequencing one day.
//
// Order is a permutation of the input indices. Legs holds the distance of
// each chain segment (origin to Order[0], then consecutive stops), so
// TotalDistance is always the sum of Legs.
type Result struct {
	Order         []int
	IDs           []string
	Names         []string
	Stops         []Coordinate
	Legs          []float64
	TotalDistance float64
}

// Sequence produces a visiting order for one day's waypoints, starting
// from origin. Locked waypoints keep their requested positions (clamped
// into [1, len(places)]); the remaining waypoints fill the empty slots by
// greedy nearest-neighbor from a moving current location. Distance ties
// are broken by input order, so the result is fully deterministic.
//
// When two locks request the same slot, the later input wins and the
// displaced waypoint rejoins the free pool, so the output is always a
// complete permutation.
func Sequence(origin Coordinate, places []Waypoint, locks []Lock) Result {
	n := len(places)
	if n == 0 {
		return Result{Order: []int{}, IDs: []string{}, Names: []string{}, Stops: []Coordinate{}, Legs: []float64{}}
	}

	slots := make([]int, n)
	for i := range slots {
		slots[i] = -1
	}

	placed := make([]bool, n)
	for i := range places {
		if i >= len(locks) || !locks[i].Locked {
			continue
		}
		k := locks[i].Order
		if k < 1 {
			k = 1
		} else if k > n {
			k = n
		}
		if prev := slots[k-1]; prev >= 0 {
			placed[prev] = false
		}
		slots[k-1] = i
		placed[i] = true
	}

	free := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !placed[i] {
			free = append(free, i)
		}
	}

	current := origin
	for s := 0; s < n; s++ {
		if slots[s] >= 0 {
			current = places[slots[s]].Location
			continue
		}

		best := -1
		bestDist := math.MaxFloat64
		for j, idx := range free {
			if d := Haversine(current, places[idx].Location); d < bestDist {
				bestDist = d
				best = j
			}
		}

		idx := free[best]
		free = append(free[:best], free[best+1:]...)
		slots[s] = idx
		current = places[idx].Location
	}

	// Recompute the chain over the final order so the reported total
	// matches the actual sequence, not the running greedy estimate.
	result := Result{
		Order: slots,
		IDs:   make([]string, n),
		Names: make([]string, n),
		Stops: make([]Coordinate, n),
		Legs:  make([]float64, n),
	}
	prev := origin
	for s, idx := range slots {
		result.IDs[s] = places[idx].ID
		result.Names[s] = places[idx].Name
		result.Stops[s] = places[idx].Location
		result.Legs[s] = Haversine(prev, places[idx].Location)
		result.TotalDistance += result.Legs[s]
		prev = places[idx].Location
	}
	return result
}
