package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wanderoute/trip-route-api/internal/api"
	"github.com/wanderoute/trip-route-api/internal/api/places"
	"github.com/wanderoute/trip-route-api/internal/planner"
	"github.com/wanderoute/trip-route-api/internal/types"
)

type Handler struct {
	routeService Service
	logger       *slog.Logger
}

func NewHandler(routeService Service, logger *slog.Logger) *Handler {
	return &Handler{
		routeService: routeService,
		logger:       logger,
	}
}

// OptimizeDay sequences one day's places with locked-waypoint constraints.
func (h *Handler) OptimizeDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OptimizeDay").Start(r.Context(), "OptimizeDay", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/optimize"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "OptimizeDay"))
	l.DebugContext(ctx, "Optimize day route handler invoked")

	var req types.OptimizeDayRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.routeService.OptimizeDay(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}

	l.InfoContext(ctx, "Day route optimized",
		slog.Int("places", len(req.Places)),
		slog.Float64("total_distance_km", resp.TotalDistanceKm),
	)
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// OptimizeItinerary sequences every day of a multi-day itinerary sent
// inline in the request body.
func (h *Handler) OptimizeItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OptimizeItinerary").Start(r.Context(), "OptimizeItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/optimize"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "OptimizeItinerary"))
	l.DebugContext(ctx, "Optimize itinerary handler invoked")

	var req types.OptimizeItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.routeService.OptimizeItinerary(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}

	l.InfoContext(ctx, "Itinerary optimized",
		slog.Int("days", len(resp.Days)),
		slog.Float64("total_distance_km", resp.TotalDistanceKm),
	)
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// OptimizeSavedItinerary loads an itinerary by id from the backend API
// and optimizes it. The caller's bearer token passes through to the
// backend untouched.
func (h *Handler) OptimizeSavedItinerary(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("OptimizeSavedItinerary").Start(r.Context(), "OptimizeSavedItinerary", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{itineraryID}/optimize"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "OptimizeSavedItinerary"))
	l.DebugContext(ctx, "Optimize saved itinerary handler invoked")

	itineraryIDStr := chi.URLParam(r, "itineraryID")
	itineraryID, err := uuid.Parse(itineraryIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid itinerary ID format", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid itinerary ID format")
		return
	}
	l = l.With(slog.String("itineraryID", itineraryID.String()))

	if token, ok := api.BearerToken(r); ok {
		ctx = places.WithBearer(ctx, token)
	}

	resp, err := h.routeService.OptimizeSavedItinerary(ctx, itineraryID)
	if err != nil {
		h.writeServiceError(ctx, w, r, l, err)
		return
	}

	l.InfoContext(ctx, "Saved itinerary optimized", slog.Int("days", len(resp.Days)))
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Distance returns the haversine distance between two coordinate pairs.
// Support endpoint used by the front-end for quick sanity checks.
func (h *Handler) Distance(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("Distance").Start(r.Context(), "Distance", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/routes/distance"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Distance"))

	from, err := parseCoordinate(r, "from_lat", "from_lng")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseCoordinate(r, "to_lat", "to_lng")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	km := h.routeService.Distance(from, to)
	l.DebugContext(ctx, "Distance computed", slog.Float64("distance_km", km))
	api.WriteJSONResponse(w, r, http.StatusOK, types.DistanceResponse{DistanceKm: km})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	switch {
	case isValidationError(err):
		l.ErrorContext(ctx, "Invalid optimize request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, places.ErrNotFound):
		l.ErrorContext(ctx, "Itinerary or place not found", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerary or place not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		l.WarnContext(ctx, "Optimize request cancelled", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusRequestTimeout, "Request cancelled")
	default:
		l.ErrorContext(ctx, "Failed to optimize route", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, fmt.Sprintf("Failed to optimize route: %s", err.Error()))
	}
}

func parseCoordinate(r *http.Request, latParam, lngParam string) (planner.Coordinate, error) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get(latParam), 64)
	if err != nil {
		return planner.Coordinate{}, fmt.Errorf("query parameter %q must be a valid number", latParam)
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get(lngParam), 64)
	if err != nil {
		return planner.Coordinate{}, fmt.Errorf("query parameter %q must be a valid number", lngParam)
	}
	return planner.Coordinate{Latitude: lat, Longitude: lng}, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, types.ErrMissingOriginCoordinates) ||
		errors.Is(err, types.ErrNoPlaces) ||
		errors.Is(err, types.ErrInvalidDayNumber)
}
