package backend

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopdesk",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Backend calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shopdesk",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend call latency.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"operation"})
)

// observe records the result of one backend call.
func observe(op string, start time.Time, err error) {
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(op, outcome(err)).Inc()
}

// outcome maps an error to a low-cardinality label.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return strconv.Itoa(apiErr.Status/100) + "xx"
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "malformed"
	}
	return "transport"
}
