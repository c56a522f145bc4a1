package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	OptimizeRequestsTotal   metric.Int64Counter
	OptimizeDurationSeconds metric.Float64Histogram
	PlacesPerDay            metric.Int64Histogram
	BackendFetchErrorsTotal metric.Int64Counter
	RouteDistanceKilometers metric.Float64Histogram
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripRouteAPI")
		var err error
		m := &AppMetrics{}

		m.OptimizeRequestsTotal, err = meter.Int64Counter(
			"optimize_requests_total",
			metric.WithDescription("Total number of route optimization requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create optimize_requests_total: %v", err)
		}

		m.OptimizeDurationSeconds, err = meter.Float64Histogram(
			"optimize_duration_seconds",
			metric.WithDescription("Duration of route optimization requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create optimize_duration_seconds: %v", err)
		}

		m.PlacesPerDay, err = meter.Int64Histogram(
			"optimize_places_per_day",
			metric.WithDescription("Number of places sequenced per day route"),
			metric.WithUnit("{place}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create optimize_places_per_day: %v", err)
		}

		m.BackendFetchErrorsTotal, err = meter.Int64Counter(
			"backend_fetch_errors_total",
			metric.WithDescription("Total number of failed place backend fetches"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create backend_fetch_errors_total: %v", err)
		}

		m.RouteDistanceKilometers, err = meter.Float64Histogram(
			"route_total_distance_kilometers",
			metric.WithDescription("Total distance of optimized day routes in kilometers"),
			metric.WithUnit("km"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create route_total_distance_kilometers: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
