package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings persisted",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking attempts",
	}, []string{"reason"})

	BookingsDemoFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_demo_fallback_total",
		Help: "Total number of bookings completed via the non-durable demo fallback",
	})

	StockValidationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_validation_failures_total",
		Help: "Total number of checkouts rejected by stock validation",
	})

	StockDecrementFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_decrement_failures_total",
		Help: "Total number of post-checkout stock decrement line failures",
	})

	StockValidationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_validation_latency_seconds",
		Help:    "Latency of stock validation",
		Buckets: prometheus.DefBuckets,
	})

	PaymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	}, []string{"method"})

	PaymentOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_outcomes_total",
		Help: "Total number of payment outcomes",
	}, []string{"outcome"})

	PaymentProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	})

	RushCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rush_cache_total",
		Help: "Rush map cache lookups by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
