package alertsearch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/bdpiprava/alertsearch/xlog"
)

// options is a struct that holds the configuration of a Client
type options struct {
	timeout      time.Duration
	maxHitsLimit int
	username     string
	password     string
	headers      http.Header
	logger       logrus.FieldLogger
	registerer   prometheus.Registerer
	httpClient   *http.Client
}

// Option is a function that takes a pointer to options and modifies it
type Option func(*options)

func defaultOptions() options {
	return options{
		timeout:      DefaultTimeout,
		maxHitsLimit: DefaultMaxHitsLimit,
		headers:      http.Header{},
		logger:       xlog.Base(),
	}
}

// WithTimeout sets the timeout applied to every request
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithMaxHitsLimit sets the hard upper bound on max_hits, larger requests are clamped
func WithMaxHitsLimit(limit int) Option {
	return func(o *options) {
		o.maxHitsLimit = limit
	}
}

// WithBasicAuth authenticates every request with the credentials
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithBearerToken authenticates every request with the token
func WithBearerToken(token string) Option {
	return func(o *options) {
		o.headers.Set("Authorization", "Bearer "+token)
	}
}

// WithHeader adds the header to every request
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers.Add(key, value)
	}
}

// WithLogger sets the logger, a logger carried by the call context wins
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics registers the client metrics with the registerer
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = registerer
	}
}

// WithHTTPClient sets the http client, e.g. to tune the connection pool
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}
