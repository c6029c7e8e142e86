// Package alertsearch is a client for the Quickwit search REST API tailored to security alert indices.
//
// The client is safe for concurrent use. It holds immutable configuration and an optional preferred endpoint
// learned from the last successful health check. It never retries: failures are returned as the typed errors of
// the search package so callers can tell transient from permanent failures.
package alertsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bdpiprava/alertsearch/search"
	"github.com/bdpiprava/alertsearch/xhttp"
	"github.com/bdpiprava/alertsearch/xlog"
)

const (
	healthPath     = "health/readyz"
	apiVersionPath = "api/v1"
	indexesPath    = "indexes"
	ingestPath     = "ingest"
	searchPath     = "search"

	contentTypeJSON   = "application/json"
	contentTypeNDJSON = "application/x-ndjson"
	commitParam       = "commit"
)

// Client talks to the backend REST API
type Client struct {
	endpoints    []string
	preferred    atomic.Int32
	http         *xhttp.Client
	maxHitsLimit int
	metrics      *clientMetrics
	log          logrus.FieldLogger
}

// NewFromConfig returns a new client configured from the config, opts are applied after the config
func NewFromConfig(config Config, opts ...Option) (*Client, error) {
	config = config.WithDefaults()
	return New(config.Hosts, append(config.options(), opts...)...)
}

// New returns a new client for the hosts, tried in the given order by HealthCheck.
// It fails on malformed configuration only, no request is sent.
func New(hosts []string, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	endpoints, err := parseEndpoints(hosts)
	if err != nil {
		return nil, err
	}

	if o.timeout <= 0 {
		return nil, errors.Errorf("timeout must be positive, got %s", o.timeout)
	}

	if o.maxHitsLimit <= 0 {
		return nil, errors.Errorf("max hits limit must be positive, got %d", o.maxHitsLimit)
	}

	metrics, err := newClientMetrics(o.registerer)
	if err != nil {
		return nil, err
	}

	httpOpts := []xhttp.ClientOption{
		xhttp.WithDefaultTimeout(o.timeout),
		xhttp.WithDefaultHeaders(o.headers),
		xhttp.WithLogger(o.logger),
		xhttp.WithHTTPClient(o.httpClient),
	}
	if o.username != "" || o.password != "" {
		httpOpts = append(httpOpts, xhttp.WithDefaultBasicAuth(o.username, o.password))
	}

	return &Client{
		endpoints:    endpoints,
		http:         xhttp.NewClient(httpOpts...),
		maxHitsLimit: o.maxHitsLimit,
		metrics:      metrics,
		log:          o.logger,
	}, nil
}

// Endpoint returns the base URL the next operation is sent to
func (c *Client) Endpoint() string {
	return c.endpoints[c.preferred.Load()]
}

// MaxHitsLimit returns the hard upper bound applied to max_hits
func (c *Client) MaxHitsLimit() int {
	return c.maxHitsLimit
}

// HealthCheck probes the hosts in order and reports whether one of them is ready to serve queries.
// The first ready host becomes the endpoint of the following operations.
// On failure it returns false together with the error of the last probed host.
func (c *Client) HealthCheck(ctx context.Context) (ready bool, err error) {
	defer c.observe(search.OpHealthCheck, time.Now(), &err)
	log := c.logger(ctx).WithField("func", "HealthCheck")

	for _, idx := range c.probeOrder() {
		endpoint := c.endpoints[idx]
		err = c.probe(ctx, endpoint)
		if err == nil {
			c.preferred.Store(int32(idx))
			log.WithField("endpoint", endpoint).Debug("backend is ready")
			return true, nil
		}

		log.WithError(err).WithField("endpoint", endpoint).Debug("backend is not ready")
		if ctx.Err() != nil {
			break
		}
	}

	log.WithError(err).Warn("no backend endpoint is ready")
	return false, err
}

// ListIndices returns the indices known to the backend, an empty list when there are none
func (c *Client) ListIndices(ctx context.Context) (indices search.Indices, err error) {
	defer c.observe(search.OpListIndices, time.Now(), &err)
	log := c.logger(ctx).WithField("func", "ListIndices")

	log.Debug("listing indices")
	var metadata []indexMetadata
	resp, endpoint, err := c.execute(ctx, search.OpListIndices, http.MethodGet, &metadata,
		xhttp.WithPath(apiVersionPath, indexesPath),
	)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, statusError(search.OpListIndices, "", endpoint, resp)
	}

	indices = make(search.Indices, 0, len(metadata))
	for _, meta := range metadata {
		info, ok := meta.toIndexInfo()
		if !ok {
			log.WithField("index_uid", meta.IndexUID).Warn("skipping index without identifier")
			continue
		}
		indices = append(indices, info)
	}

	log.Debugf("found %d indices", len(indices))
	return indices, nil
}

// Ingest writes the events to the index as newline delimited JSON.
// With search.CommitForce the documents are searchable once the call returns, other modes publish them later.
// An empty commit mode means search.CommitAuto.
func (c *Client) Ingest(ctx context.Context, index string, events []search.Event, commit search.CommitMode) (result *search.IngestResult, err error) {
	defer c.observe(search.OpIngest, time.Now(), &err)
	log := c.logger(ctx).WithFields(logrus.Fields{
		"func":   "Ingest",
		"index":  index,
		"commit": commit,
		"events": len(events),
	})

	if commit == "" {
		commit = search.CommitAuto
	}

	if err = validateIngest(index, events, commit); err != nil {
		return nil, err
	}

	log.Debug("encoding events")
	body, err := encodeNDJSON(events)
	if err != nil {
		return nil, search.NewValidationError(search.OpIngest, "events", "%v", err)
	}

	log.Debug("executing ingest request")
	var out ingestResponse
	resp, endpoint, err := c.execute(ctx, search.OpIngest, http.MethodPost, &out,
		xhttp.WithPath(apiVersionPath, index, ingestPath),
		xhttp.WithQueryParam(commitParam, string(commit)),
		xhttp.WithReader(contentTypeNDJSON, body),
	)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, statusError(search.OpIngest, index, endpoint, resp)
	}

	result = &search.IngestResult{
		Submitted:            len(events),
		NumDocsForProcessing: out.NumDocsForProcessing,
		NumIngestedDocs:      out.NumIngestedDocs,
		NumRejectedDocs:      out.NumRejectedDocs,
	}

	if out.NumRejectedDocs > 0 {
		log.Warnf("backend rejected %d documents", out.NumRejectedDocs)
	}
	log.Debugf("ingested %d documents", out.NumDocsForProcessing)
	return result, nil
}

// Search runs the query and returns at most query.MaxHits hits.
// MaxHits above the client limit is clamped to the limit.
func (c *Client) Search(ctx context.Context, query search.Query) (result *search.Result, err error) {
	defer c.observe(search.OpSearch, time.Now(), &err)
	log := c.logger(ctx).WithFields(logrus.Fields{
		"func":  "Search",
		"index": query.Index,
		"query": query.Expression,
	})

	if err = query.Validate(search.OpSearch); err != nil {
		return nil, err
	}

	maxHits := query.MaxHits
	if maxHits > c.maxHitsLimit {
		log.Warnf("max_hits %d exceeds the limit, clamping to %d", maxHits, c.maxHitsLimit)
		maxHits = c.maxHitsLimit
	}

	out, err := c.search(ctx, log, search.OpSearch, query, maxHits)
	if err != nil {
		return nil, err
	}

	hits := out.Hits
	if len(hits) > maxHits {
		log.Warnf("backend returned %d hits for max_hits %d, truncating", len(hits), maxHits)
		hits = hits[:maxHits]
	}
	if hits == nil {
		hits = make([]search.Event, 0)
	}

	log.Debugf("found %d documents, returning %d", out.NumHits, len(hits))
	return &search.Result{
		NumHits:     out.NumHits,
		Hits:        hits,
		ElapsedTime: time.Duration(out.ElapsedTimeMicros) * time.Microsecond,
	}, nil
}

// Count returns the number of documents matching the query without fetching any of them.
// query.MaxHits is ignored.
func (c *Client) Count(ctx context.Context, query search.Query) (count int64, err error) {
	defer c.observe(search.OpCount, time.Now(), &err)
	log := c.logger(ctx).WithFields(logrus.Fields{
		"func":  "Count",
		"index": query.Index,
		"query": query.Expression,
	})

	if err = query.ValidateScope(search.OpCount); err != nil {
		return 0, err
	}

	out, err := c.search(ctx, log, search.OpCount, query, 0)
	if err != nil {
		return 0, err
	}

	log.Debugf("counted %d documents", out.NumHits)
	return out.NumHits, nil
}

// search sends one search request with the given max_hits
func (c *Client) search(ctx context.Context, log logrus.FieldLogger, op string, query search.Query, maxHits int) (*searchResponse, error) {
	log.Debug("executing search request")
	var out searchResponse
	opts := []xhttp.RequestOption{
		xhttp.WithPath(apiVersionPath, query.Index, searchPath),
		xhttp.WithJSONBody(newSearchRequest(query, maxHits)),
	}
	if query.Timeout > 0 {
		opts = append(opts, xhttp.WithTimeout(query.Timeout))
	}

	resp, endpoint, err := c.execute(ctx, op, http.MethodPost, &out, opts...)
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, statusError(op, query.Index, endpoint, resp)
	}

	if len(out.Errors) > 0 {
		log.Warnf("search completed with %d partial errors: %s", len(out.Errors), strings.Join(out.Errors, "; "))
	}
	return &out, nil
}

// execute sends the request to the preferred endpoint and maps transport and decoding failures.
// A non-2xx response is returned without error, the caller maps it for its operation.
func (c *Client) execute(ctx context.Context, op, method string, out any, opts ...xhttp.RequestOption) (*xhttp.Response, string, error) {
	endpoint := c.Endpoint()
	opts = append([]xhttp.RequestOption{
		xhttp.WithContext(ctx),
		xhttp.WithBaseURL(endpoint),
		xhttp.WithHeader("Accept", contentTypeJSON),
	}, opts...)

	resp, err := c.http.Execute(*xhttp.NewRequest(method, opts...), out)
	if resp == nil && err != nil {
		return nil, endpoint, &search.ConnectionError{Op: op, Endpoint: endpoint, Err: err}
	}

	if err != nil {
		return nil, endpoint, &search.BackendError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.RawBody), Err: err}
	}
	return resp, endpoint, nil
}

// probe checks a single endpoint for readiness
func (c *Client) probe(ctx context.Context, endpoint string) error {
	var ready bool
	resp, err := c.http.Execute(*xhttp.NewRequest(http.MethodGet,
		xhttp.WithContext(ctx),
		xhttp.WithBaseURL(endpoint),
		xhttp.WithHeader("Accept", contentTypeJSON),
		xhttp.WithPath(healthPath),
	), &ready)
	if resp == nil && err != nil {
		return &search.ConnectionError{Op: search.OpHealthCheck, Endpoint: endpoint, Err: err}
	}

	if err != nil {
		return &search.BackendError{Op: search.OpHealthCheck, StatusCode: resp.StatusCode, Body: string(resp.RawBody), Err: err}
	}

	if !resp.IsSuccess() {
		return statusError(search.OpHealthCheck, "", endpoint, resp)
	}

	if !ready {
		return &search.BackendError{Op: search.OpHealthCheck, StatusCode: resp.StatusCode, Err: errors.New("backend reported not ready")}
	}
	return nil
}

// probeOrder returns endpoint indexes, the preferred endpoint first
func (c *Client) probeOrder() []int {
	preferred := int(c.preferred.Load())
	order := make([]int, 0, len(c.endpoints))
	order = append(order, preferred)
	for i := range c.endpoints {
		if i != preferred {
			order = append(order, i)
		}
	}
	return order
}

// observe records the operation outcome, err is read when the deferred call runs
func (c *Client) observe(op string, started time.Time, err *error) {
	c.metrics.observe(op, started, *err)
}

// logger returns the logger carried by ctx or the client logger
func (c *Client) logger(ctx context.Context) logrus.FieldLogger {
	if logger, ok := xlog.Lookup(ctx); ok {
		return logger
	}
	return c.log
}

// statusError maps a non-2xx response to the error of the operation
func statusError(op, index, endpoint string, resp *xhttp.Response) error {
	body := string(resp.RawBody)
	switch {
	case isUnavailable(resp.StatusCode):
		return &search.ConnectionError{Op: op, Endpoint: endpoint, Err: errors.Errorf("backend unavailable: %s", resp.Status)}
	case op == search.OpIngest:
		return &search.IngestError{Op: op, Index: index, StatusCode: resp.StatusCode, Body: body}
	case (op == search.OpSearch || op == search.OpCount) && isRejectedQuery(resp.StatusCode):
		return &search.QueryError{Op: op, Index: index, StatusCode: resp.StatusCode, Body: body}
	default:
		return &search.BackendError{Op: op, StatusCode: resp.StatusCode, Body: body}
	}
}

// isUnavailable reports the statuses of an overloaded or unreachable backend, worth retrying later
func isUnavailable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRejectedQuery(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity
}

func validateIngest(index string, events []search.Event, commit search.CommitMode) error {
	if strings.TrimSpace(index) == "" {
		return search.NewValidationError(search.OpIngest, "index", "must not be empty")
	}
	if len(events) == 0 {
		return search.NewValidationError(search.OpIngest, "events", "at least one event is required")
	}
	if !commit.Valid() {
		return search.NewValidationError(search.OpIngest, "commit", "unsupported mode %q", commit)
	}
	for i, event := range events {
		if event == nil {
			return search.NewValidationError(search.OpIngest, "events", "event at position %d is nil", i)
		}
	}
	return nil
}

// encodeNDJSON writes one JSON object per line
func encodeNDJSON(events []search.Event) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	for i, event := range events {
		if err := encoder.Encode(event); err != nil {
			return nil, errors.Wrapf(err, "failed to encode event at position %d", i)
		}
	}
	return buf, nil
}

func parseEndpoints(hosts []string) ([]string, error) {
	if len(hosts) == 0 {
		return nil, errors.New("at least one host is required")
	}

	endpoints := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		u, err := url.Parse(host)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid host %q", host)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, errors.Errorf("invalid host %q: scheme must be http or https", host)
		}
		if u.Host == "" {
			return nil, errors.Errorf("invalid host %q: missing host name", host)
		}
		endpoints = append(endpoints, strings.TrimRight(host, "/"))
	}
	return endpoints, nil
}
