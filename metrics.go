package alertsearch

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bdpiprava/alertsearch/search"
)

const (
	outcomeSuccess    = "success"
	outcomeConnection = "connection_error"
	outcomeBackend    = "backend_error"
	outcomeQuery      = "query_error"
	outcomeIngest     = "ingest_error"
	outcomeValidation = "validation_error"
	outcomeUnknown    = "error"
)

// clientMetrics holds the collectors updated by every client operation
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newClientMetrics creates the collectors and registers them when a registerer is given.
// Collectors already registered by another client are reused.
func newClientMetrics(registerer prometheus.Registerer) (*clientMetrics, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsearch_requests_total",
			Help: "Total number of search backend operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alertsearch_request_duration_seconds",
			Help:    "Search backend operation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	if registerer == nil {
		return &clientMetrics{requests: requests, duration: duration}, nil
	}

	var err error
	if requests, err = register(registerer, requests); err != nil {
		return nil, err
	}
	if duration, err = register(registerer, duration); err != nil {
		return nil, err
	}
	return &clientMetrics{requests: requests, duration: duration}, nil
}

// observe records one finished operation
func (m *clientMetrics) observe(op string, started time.Time, err error) {
	m.requests.WithLabelValues(op, outcome(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return collector, errors.Wrap(err, "failed to register client metrics")
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}

	var (
		connErr       *search.ConnectionError
		backendErr    *search.BackendError
		queryErr      *search.QueryError
		ingestErr     *search.IngestError
		validationErr *search.ValidationError
	)

	switch {
	case errors.As(err, &connErr):
		return outcomeConnection
	case errors.As(err, &backendErr):
		return outcomeBackend
	case errors.As(err, &queryErr):
		return outcomeQuery
	case errors.As(err, &ingestErr):
		return outcomeIngest
	case errors.As(err, &validationErr):
		return outcomeValidation
	default:
		return outcomeUnknown
	}
}
