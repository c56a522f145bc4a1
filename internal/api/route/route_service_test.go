package route

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderoute/trip-route-api/app/observability/metrics"
	"github.com/wanderoute/trip-route-api/internal/api/directions"
	"github.com/wanderoute/trip-route-api/internal/planner"
	"github.com/wanderoute/trip-route-api/internal/types"
)

// MockPlacesRepository is a mock implementation of places.Repository
type MockPlacesRepository struct {
	mock.Mock
}

func (m *MockPlacesRepository) GetPlace(ctx context.Context, placeID uuid.UUID) (*types.Place, error) {
	args := m.Called(ctx, placeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Place), args.Error(1)
}

func (m *MockPlacesRepository) GetItinerary(ctx context.Context, itineraryID uuid.UUID) (*types.Itinerary, error) {
	args := m.Called(ctx, itineraryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

// countingProvider records how many legs it was asked for.
type countingProvider struct {
	calls int
}

func (p *countingProvider) Leg(_ context.Context, from, to planner.Coordinate) (directions.Leg, error) {
	p.calls++
	return directions.Leg{
		DistanceKm: planner.Haversine(from, to),
		Path:       []planner.Coordinate{from, to},
	}, nil
}

func TestMain(m *testing.M) {
	// Instruments bind to the global no-op meter provider in tests.
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo *MockPlacesRepository, provider directions.Provider) *ServiceImpl {
	return NewServiceImpl(repo, provider, time.Minute, testLogger())
}

func f(v float64) *float64 { return &v }

func seoulDayRequest() types.OptimizeDayRequest {
	return types.OptimizeDayRequest{
		Origin: types.RoutePlaceInput{Name: "Seoul City Hall", Latitude: f(37.5665), Longitude: f(126.9780)},
		Places: []types.RoutePlaceInput{
			{ID: "a", Name: "Myeongdong Cathedral", Latitude: f(37.5512), Longitude: f(126.9882)},
			{ID: "b", Name: "Gyeongbokgung", Latitude: f(37.5796), Longitude: f(126.9770)},
			{ID: "c", Name: "Insadong", Latitude: f(37.5700), Longitude: f(126.9830)},
		},
	}
}

func TestOptimizeDayMissingOriginCoordinates(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := seoulDayRequest()
	req.Origin.Latitude = nil

	_, err := service.OptimizeDay(context.Background(), req)
	assert.ErrorIs(t, err, types.ErrMissingOriginCoordinates)
}

func TestOptimizeDayOrdersByNearestNeighbor(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	resp, err := service.OptimizeDay(context.Background(), seoulDayRequest())
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1, 0}, resp.Order)
	assert.Equal(t, []string{"Insadong", "Gyeongbokgung", "Myeongdong Cathedral"}, resp.OptimizedNames)
	assert.Equal(t, []string{"c", "b", "a"}, resp.OptimizedIDs)
	require.Len(t, resp.Legs, 3)
	assert.Equal(t, "Seoul City Hall", resp.Legs[0].From)
	assert.Equal(t, "Insadong", resp.Legs[0].To)

	sum := 0.0
	for _, leg := range resp.Legs {
		sum += leg.DistanceKm
	}
	assert.InDelta(t, sum, resp.TotalDistanceKm, 1e-9)
	assert.Empty(t, resp.Skipped)
}

func TestOptimizeDayRespectsLock(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := seoulDayRequest()
	req.Places[1].Locked = true
	req.Places[1].LockOrder = 1

	resp, err := service.OptimizeDay(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Order[0])
	assert.Equal(t, "Gyeongbokgung", resp.OptimizedNames[0])
}

func TestOptimizeDaySkipsPlacesWithoutCoordinates(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := seoulDayRequest()
	req.Places[1].Latitude = nil

	resp, err := service.OptimizeDay(context.Background(), req)
	require.NoError(t, err)

	// Order still refers to the caller's original indices.
	assert.ElementsMatch(t, []int{0, 2}, resp.Order)
	assert.Equal(t, []string{"Gyeongbokgung"}, resp.Skipped)
	assert.Len(t, resp.OptimizedNames, 2)
}

func TestOptimizeDayEmptyPlaces(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := types.OptimizeDayRequest{
		Origin: types.RoutePlaceInput{Name: "Seoul City Hall", Latitude: f(37.5665), Longitude: f(126.9780)},
	}

	resp, err := service.OptimizeDay(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, resp.Order)
	assert.Equal(t, 0.0, resp.TotalDistanceKm)
}

func TestOptimizeDayCachesByRequestDigest(t *testing.T) {
	provider := &countingProvider{}
	service := newTestService(new(MockPlacesRepository), provider)

	first, err := service.OptimizeDay(context.Background(), seoulDayRequest())
	require.NoError(t, err)
	callsAfterFirst := provider.calls
	assert.Equal(t, 3, callsAfterFirst)

	second, err := service.OptimizeDay(context.Background(), seoulDayRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, provider.calls, "cache hit must not re-run the directions provider")
}

func TestOptimizeItineraryRejectsInvalidDayNumber(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := types.OptimizeItineraryRequest{Assignments: []types.DayAssignmentInput{
		{DayNumber: 0, RoutePlaceInput: types.RoutePlaceInput{Name: "Bad", Latitude: f(1), Longitude: f(1)}},
	}}

	_, err := service.OptimizeItinerary(context.Background(), req)
	assert.ErrorIs(t, err, types.ErrInvalidDayNumber)
}

func TestOptimizeItineraryMultiDay(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := types.OptimizeItineraryRequest{Assignments: []types.DayAssignmentInput{
		{DayNumber: 2, RoutePlaceInput: types.RoutePlaceInput{ID: "h", Name: "Hotel", Latitude: f(37.5600), Longitude: f(126.9750)}},
		{DayNumber: 2, RoutePlaceInput: types.RoutePlaceInput{ID: "a", Name: "Myeongdong Cathedral", Latitude: f(37.5512), Longitude: f(126.9882)}},
		{DayNumber: 1, RoutePlaceInput: types.RoutePlaceInput{ID: "o", Name: "Seoul City Hall", Latitude: f(37.5665), Longitude: f(126.9780)}},
		{DayNumber: 1, RoutePlaceInput: types.RoutePlaceInput{ID: "b", Name: "Gyeongbokgung", Latitude: f(37.5796), Longitude: f(126.9770)}},
		{DayNumber: 1, RoutePlaceInput: types.RoutePlaceInput{ID: "c", Name: "Insadong", Latitude: f(37.5700), Longitude: f(126.9830)}},
	}}

	resp, err := service.OptimizeItinerary(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Days, 2)

	assert.Equal(t, 1, resp.Days[0].DayNumber)
	assert.Equal(t, "Seoul City Hall", resp.Days[0].OriginName)
	assert.Len(t, resp.Days[0].Order, 2)

	assert.Equal(t, 2, resp.Days[1].DayNumber)
	assert.Equal(t, "Hotel", resp.Days[1].OriginName)
	assert.Len(t, resp.Days[1].Order, 1)

	assert.InDelta(t, resp.Days[0].TotalDistanceKm+resp.Days[1].TotalDistanceKm, resp.TotalDistanceKm, 1e-9)
}

func TestOptimizeItineraryReportsFullySkippedDay(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	req := types.OptimizeItineraryRequest{Assignments: []types.DayAssignmentInput{
		{DayNumber: 1, RoutePlaceInput: types.RoutePlaceInput{ID: "o", Name: "Seoul City Hall", Latitude: f(37.5665), Longitude: f(126.9780)}},
		{DayNumber: 2, RoutePlaceInput: types.RoutePlaceInput{Name: "No geometry"}},
	}}

	resp, err := service.OptimizeItinerary(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Days, 2)

	assert.Equal(t, 2, resp.Days[1].DayNumber)
	assert.Empty(t, resp.Days[1].Order)
	assert.Equal(t, []string{"No geometry"}, resp.Days[1].Skipped)
}

func TestOptimizeSavedItinerary(t *testing.T) {
	repo := new(MockPlacesRepository)
	service := newTestService(repo, directions.GreatCircle{})

	itineraryID := uuid.New()
	originID := uuid.New()
	palaceID := uuid.New()
	marketID := uuid.New()

	repo.On("GetItinerary", mock.Anything, itineraryID).Return(&types.Itinerary{
		ID:   itineraryID,
		Name: "Seoul weekend",
		Items: []types.ItineraryItem{
			// Stored out of order; position sorting decides the day origin.
			{PlaceID: palaceID, DayNumber: 1, Position: 2, Locked: true, LockOrder: 1},
			{PlaceID: originID, DayNumber: 1, Position: 1},
			{PlaceID: marketID, DayNumber: 1, Position: 3},
		},
	}, nil)
	repo.On("GetPlace", mock.Anything, originID).Return(&types.Place{
		ID: originID, Name: "Seoul City Hall", Latitude: f(37.5665), Longitude: f(126.9780),
	}, nil)
	repo.On("GetPlace", mock.Anything, palaceID).Return(&types.Place{
		ID: palaceID, Name: "Gyeongbokgung", Latitude: f(37.5796), Longitude: f(126.9770),
	}, nil)
	repo.On("GetPlace", mock.Anything, marketID).Return(&types.Place{
		ID: marketID, Name: "Gwangjang Market", Latitude: f(37.5700), Longitude: f(127.0110),
	}, nil)

	resp, err := service.OptimizeSavedItinerary(context.Background(), itineraryID)
	require.NoError(t, err)
	require.Len(t, resp.Days, 1)

	day := resp.Days[0]
	assert.Equal(t, "Seoul City Hall", day.OriginName)
	// The locked palace holds position 1 even though the market could be nearer.
	assert.Equal(t, "Gyeongbokgung", day.OptimizedNames[0])
	assert.Len(t, day.Order, 2)

	repo.AssertExpectations(t)
}

func TestOptimizeSavedItineraryEmpty(t *testing.T) {
	repo := new(MockPlacesRepository)
	service := newTestService(repo, directions.GreatCircle{})

	itineraryID := uuid.New()
	repo.On("GetItinerary", mock.Anything, itineraryID).Return(&types.Itinerary{ID: itineraryID}, nil)

	_, err := service.OptimizeSavedItinerary(context.Background(), itineraryID)
	assert.ErrorIs(t, err, types.ErrNoPlaces)
}

func TestOptimizeSavedItineraryBackendFailure(t *testing.T) {
	repo := new(MockPlacesRepository)
	service := newTestService(repo, directions.GreatCircle{})

	itineraryID := uuid.New()
	backendErr := errors.New("backend unavailable")
	repo.On("GetItinerary", mock.Anything, itineraryID).Return(nil, backendErr)

	_, err := service.OptimizeSavedItinerary(context.Background(), itineraryID)
	assert.ErrorIs(t, err, backendErr)
}

func TestDistanceMatchesHaversine(t *testing.T) {
	service := newTestService(new(MockPlacesRepository), directions.GreatCircle{})

	from := planner.Coordinate{Latitude: 37.5665, Longitude: 126.9780}
	to := planner.Coordinate{Latitude: 37.5796, Longitude: 126.9770}

	assert.Equal(t, planner.Haversine(from, to), service.Distance(from, to))
}
