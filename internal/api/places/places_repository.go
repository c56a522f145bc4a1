package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/wanderoute/trip-route-api/internal/types"
)

// ErrNotFound is returned when the backend has no record for the id.
var ErrNotFound = errors.New("place record not found")

// Repository defines read access to the backend REST API that owns place
// and itinerary records. This service never writes; persistence stays with
// the backend.
type Repository interface {
	GetPlace(ctx context.Context, placeID uuid.UUID) (*types.Place, error)
	GetItinerary(ctx context.Context, itineraryID uuid.UUID) (*types.Itinerary, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type RepositoryImpl struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	cache   *cache.Cache
}

func NewRepository(baseURL string, timeout time.Duration, cacheTTL time.Duration, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (r *RepositoryImpl) GetPlace(ctx context.Context, placeID uuid.UUID) (*types.Place, error) {
	cacheKey := "place:" + placeID.String()
	if cached, found := r.cache.Get(cacheKey); found {
		place := cached.(types.Place)
		return &place, nil
	}

	var place types.Place
	if err := r.getJSON(ctx, fmt.Sprintf("%s/api/v1/places/%s", r.baseURL, placeID), &place); err != nil {
		return nil, fmt.Errorf("failed to fetch place %s: %w", placeID, err)
	}

	r.cache.Set(cacheKey, place, cache.DefaultExpiration)
	return &place, nil
}

func (r *RepositoryImpl) GetItinerary(ctx context.Context, itineraryID uuid.UUID) (*types.Itinerary, error) {
	// Itineraries mutate as the user drags stops around, so they are
	// fetched fresh on every optimize call.
	var itinerary types.Itinerary
	if err := r.getJSON(ctx, fmt.Sprintf("%s/api/v1/itineraries/%s", r.baseURL, itineraryID), &itinerary); err != nil {
		return nil, fmt.Errorf("failed to fetch itinerary %s: %w", itineraryID, err)
	}
	return &itinerary, nil
}

func (r *RepositoryImpl) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// The caller's bearer token passes through untouched; auth is owned by
	// the external provider.
	if token, ok := BearerFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		r.logger.ErrorContext(ctx, "Backend request failed",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type contextKey string

const bearerKey contextKey = "bearerToken"

// WithBearer stores the caller's bearer token for pass-through to the
// backend API.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey, token)
}

// BearerFromContext returns the pass-through token, if any.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey).(string)
	return token, ok && token != ""
}
