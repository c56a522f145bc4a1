package route

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wanderoute/trip-route-api/app/observability/metrics"
	"github.com/wanderoute/trip-route-api/internal/api/directions"
	"github.com/wanderoute/trip-route-api/internal/api/places"
	"github.com/wanderoute/trip-route-api/internal/planner"
	"github.com/wanderoute/trip-route-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the business logic contract for route optimization.
type Service interface {
	OptimizeDay(ctx context.Context, req types.OptimizeDayRequest) (*types.OptimizeDayResponse, error)
	OptimizeItinerary(ctx context.Context, req types.OptimizeItineraryRequest) (*types.OptimizeItineraryResponse, error)
	OptimizeSavedItinerary(ctx context.Context, itineraryID uuid.UUID) (*types.OptimizeItineraryResponse, error)
	Distance(from, to planner.Coordinate) float64
}

type ServiceImpl struct {
	logger     *slog.Logger
	placesRepo places.Repository
	directions directions.Provider
	cache      *cache.Cache
}

func NewServiceImpl(placesRepo places.Repository, provider directions.Provider, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		placesRepo: placesRepo,
		directions: provider,
		cache:      cache.New(cacheTTL, 2*cacheTTL),
	}
}

// OptimizeDay sequences one day's places from a fixed origin. Places
// without coordinates never reach the planner; they come back in Skipped.
func (s *ServiceImpl) OptimizeDay(ctx context.Context, req types.OptimizeDayRequest) (*types.OptimizeDayResponse, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "OptimizeDay", trace.WithAttributes(
		attribute.Int("places.count", len(req.Places)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().OptimizeRequestsTotal.Add(ctx, 1)
		metrics.Get().OptimizeDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if !req.Origin.HasCoordinates() {
		span.SetStatus(codes.Error, "origin has no coordinates")
		return nil, types.ErrMissingOriginCoordinates
	}

	// Sequencing is deterministic, so caching by request digest is
	// transparent to callers.
	cacheKey, cacheable := requestDigest("day", req)
	if cacheable {
		if cached, found := s.cache.Get(cacheKey); found {
			span.AddEvent("cache hit")
			resp := cached.(types.OptimizeDayResponse)
			return &resp, nil
		}
	}

	origin := planner.Coordinate{Latitude: *req.Origin.Latitude, Longitude: *req.Origin.Longitude}
	waypoints, locks, indexMap, skipped := toWaypoints(req.Places)

	result := planner.Sequence(origin, waypoints, locks)
	metrics.Get().PlacesPerDay.Record(ctx, int64(len(waypoints)))
	metrics.Get().RouteDistanceKilometers.Record(ctx, result.TotalDistance)

	resp := types.OptimizeDayResponse{
		Order:           remapOrder(result.Order, indexMap),
		OptimizedIDs:    result.IDs,
		OptimizedNames:  result.Names,
		Legs:            s.buildLegs(ctx, originName(req.Origin), origin, waypoints, result),
		TotalDistanceKm: result.TotalDistance,
		Skipped:         skipped,
	}

	if cacheable {
		s.cache.Set(cacheKey, resp, cache.DefaultExpiration)
	}

	span.SetAttributes(attribute.Float64("route.total_distance_km", resp.TotalDistanceKm))
	span.SetStatus(codes.Ok, "Day route optimized")
	return &resp, nil
}

// OptimizeItinerary runs the day sequencer once per day number. Days are
// fully independent; a place never moves across days.
func (s *ServiceImpl) OptimizeItinerary(ctx context.Context, req types.OptimizeItineraryRequest) (*types.OptimizeItineraryResponse, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "OptimizeItinerary", trace.WithAttributes(
		attribute.Int("assignments.count", len(req.Assignments)),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().OptimizeRequestsTotal.Add(ctx, 1)
		metrics.Get().OptimizeDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	assignments := make([]planner.DayAssignment, 0, len(req.Assignments))
	skippedByDay := make(map[int][]string)
	for _, a := range req.Assignments {
		if a.DayNumber < 1 {
			span.SetStatus(codes.Error, "invalid day number")
			return nil, fmt.Errorf("%w: got %d", types.ErrInvalidDayNumber, a.DayNumber)
		}
		if !a.HasCoordinates() {
			skippedByDay[a.DayNumber] = append(skippedByDay[a.DayNumber], a.Name)
			continue
		}
		assignments = append(assignments, planner.DayAssignment{
			DayNumber: a.DayNumber,
			Waypoint: planner.Waypoint{
				ID:       a.ID,
				Name:     a.Name,
				Location: planner.Coordinate{Latitude: *a.Latitude, Longitude: *a.Longitude},
			},
			Lock: planner.Lock{Locked: a.Locked, Order: a.LockOrder},
		})
	}

	routes, err := planner.OptimizeItinerary(ctx, assignments)
	if err != nil {
		s.logger.ErrorContext(ctx, "Itinerary optimization failed", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("failed to optimize itinerary: %w", err)
	}

	resp := &types.OptimizeItineraryResponse{Days: make([]types.DayRouteResponse, 0, len(routes))}
	for _, dayRoute := range routes {
		metrics.Get().PlacesPerDay.Record(ctx, int64(len(dayRoute.Route.Order)))
		day := types.DayRouteResponse{
			DayNumber:       dayRoute.DayNumber,
			OriginName:      dayRoute.Origin.Name,
			Order:           dayRoute.Route.Order,
			OptimizedIDs:    dayRoute.Route.IDs,
			OptimizedNames:  dayRoute.Route.Names,
			Legs:            s.buildDayLegs(ctx, dayRoute),
			TotalDistanceKm: dayRoute.Route.TotalDistance,
			Skipped:         skippedByDay[dayRoute.DayNumber],
		}
		resp.TotalDistanceKm += day.TotalDistanceKm
		resp.Days = append(resp.Days, day)
	}

	// Days that lost every place to the coordinate filter still need to be
	// reported back.
	for dayNumber, names := range skippedByDay {
		if !containsDay(resp.Days, dayNumber) {
			resp.Days = append(resp.Days, types.DayRouteResponse{
				DayNumber:      dayNumber,
				Order:          []int{},
				OptimizedIDs:   []string{},
				OptimizedNames: []string{},
				Legs:           []types.RouteLeg{},
				Skipped:        names,
			})
		}
	}
	sort.Slice(resp.Days, func(i, j int) bool { return resp.Days[i].DayNumber < resp.Days[j].DayNumber })

	span.SetAttributes(
		attribute.Int("days.count", len(resp.Days)),
		attribute.Float64("route.total_distance_km", resp.TotalDistanceKm),
	)
	span.SetStatus(codes.Ok, "Itinerary optimized")
	return resp, nil
}

// OptimizeSavedItinerary fetches a saved itinerary and its place records
// from the backend, then optimizes it day by day.
func (s *ServiceImpl) OptimizeSavedItinerary(ctx context.Context, itineraryID uuid.UUID) (*types.OptimizeItineraryResponse, error) {
	ctx, span := otel.Tracer("RouteService").Start(ctx, "OptimizeSavedItinerary", trace.WithAttributes(
		attribute.String("itinerary.id", itineraryID.String()),
	))
	defer span.End()

	itinerary, err := s.placesRepo.GetItinerary(ctx, itineraryID)
	if err != nil {
		metrics.Get().BackendFetchErrorsTotal.Add(ctx, 1)
		s.logger.ErrorContext(ctx, "Failed to fetch itinerary", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}
	if len(itinerary.Items) == 0 {
		return nil, types.ErrNoPlaces
	}

	// Preserve the user's manual ordering within each day; the first stop
	// of a day becomes that day's origin.
	items := make([]types.ItineraryItem, len(itinerary.Items))
	copy(items, itinerary.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayNumber != items[j].DayNumber {
			return items[i].DayNumber < items[j].DayNumber
		}
		return items[i].Position < items[j].Position
	})

	fetched := make([]*types.Place, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, item := range items {
		g.Go(func() error {
			place, err := s.placesRepo.GetPlace(gctx, item.PlaceID)
			if err != nil {
				metrics.Get().BackendFetchErrorsTotal.Add(gctx, 1)
				return fmt.Errorf("place %s: %w", item.PlaceID, err)
			}
			fetched[i] = place
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch itinerary places", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	req := types.OptimizeItineraryRequest{Assignments: make([]types.DayAssignmentInput, 0, len(items))}
	for i, item := range items {
		place := fetched[i]
		req.Assignments = append(req.Assignments, types.DayAssignmentInput{
			DayNumber: item.DayNumber,
			RoutePlaceInput: types.RoutePlaceInput{
				ID:        place.ID.String(),
				Name:      place.Name,
				Latitude:  place.Latitude,
				Longitude: place.Longitude,
				Category:  place.Category,
				Locked:    item.Locked,
				LockOrder: item.LockOrder,
			},
		})
	}

	span.SetStatus(codes.Ok, "Saved itinerary loaded")
	return s.OptimizeItinerary(ctx, req)
}

// Distance exposes the haversine kernel for the support endpoint.
func (s *ServiceImpl) Distance(from, to planner.Coordinate) float64 {
	return planner.Haversine(from, to)
}

// buildLegs decorates the optimized chain with geometry from the injected
// directions provider. The provider never influences the ordering or the
// reported haversine total; a provider failure degrades to a bare leg.
func (s *ServiceImpl) buildLegs(ctx context.Context, originLabel string, origin planner.Coordinate, waypoints []planner.Waypoint, result planner.Result) []types.RouteLeg {
	legs := make([]types.RouteLeg, 0, len(result.Order))
	prevName := originLabel
	prevLoc := origin
	for i, idx := range result.Order {
		wp := waypoints[idx]
		leg := types.RouteLeg{From: prevName, To: wp.Name, DistanceKm: result.Legs[i]}
		if s.directions != nil {
			if geo, err := s.directions.Leg(ctx, prevLoc, wp.Location); err == nil {
				leg.Path = toPath(geo.Path)
			} else {
				s.logger.WarnContext(ctx, "Directions provider failed, returning bare leg",
					slog.String("to", wp.Name), slog.Any("error", err))
			}
		}
		legs = append(legs, leg)
		prevName = wp.Name
		prevLoc = wp.Location
	}
	return legs
}

// buildDayLegs is buildLegs over a route result whose stops are already
// in final order.
func (s *ServiceImpl) buildDayLegs(ctx context.Context, dayRoute planner.DayRoute) []types.RouteLeg {
	n := len(dayRoute.Route.Order)
	waypoints := make([]planner.Waypoint, n)
	order := make([]int, n)
	for i := 0; i < n; i++ {
		order[i] = i
		waypoints[i] = planner.Waypoint{
			ID:       dayRoute.Route.IDs[i],
			Name:     dayRoute.Route.Names[i],
			Location: dayRoute.Route.Stops[i],
		}
	}
	return s.buildLegs(ctx, dayRoute.Origin.Name, dayRoute.Origin.Location, waypoints, planner.Result{
		Order: order,
		IDs:   dayRoute.Route.IDs,
		Names: dayRoute.Route.Names,
		Legs:  dayRoute.Route.Legs,
	})
}

func toWaypoints(inputs []types.RoutePlaceInput) ([]planner.Waypoint, []planner.Lock, []int, []string) {
	waypoints := make([]planner.Waypoint, 0, len(inputs))
	locks := make([]planner.Lock, 0, len(inputs))
	indexMap := make([]int, 0, len(inputs))
	var skipped []string
	for i, p := range inputs {
		if !p.HasCoordinates() {
			skipped = append(skipped, p.Name)
			continue
		}
		waypoints = append(waypoints, planner.Waypoint{
			ID:       p.ID,
			Name:     p.Name,
			Location: planner.Coordinate{Latitude: *p.Latitude, Longitude: *p.Longitude},
		})
		locks = append(locks, planner.Lock{Locked: p.Locked, Order: p.LockOrder})
		indexMap = append(indexMap, i)
	}
	return waypoints, locks, indexMap, skipped
}

// remapOrder translates planner indices (over the filtered set) back to
// the caller's original place indices.
func remapOrder(order []int, indexMap []int) []int {
	remapped := make([]int, len(order))
	for i, idx := range order {
		remapped[i] = indexMap[idx]
	}
	return remapped
}

func toPath(path []planner.Coordinate) [][]float64 {
	out := make([][]float64, len(path))
	for i, c := range path {
		out[i] = []float64{c.Latitude, c.Longitude}
	}
	return out
}

func originName(origin types.RoutePlaceInput) string {
	if origin.Name != "" {
		return origin.Name
	}
	return "origin"
}

func containsDay(days []types.DayRouteResponse, dayNumber int) bool {
	for _, d := range days {
		if d.DayNumber == dayNumber {
			return true
		}
	}
	return false
}

// requestDigest derives a stable cache key from the request payload.
func requestDigest(kind string, req interface{}) (string, bool) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(raw)
	return kind + ":" + hex.EncodeToString(sum[:]), true
}
