// Package dashboard derives alert analytics from raw search results.
//
// The backend is not asked to aggregate: every analytic runs one or more plain searches through a SearchClient
// and counts, groups, ranks or filters the returned hits in memory. A Dashboard keeps no state between calls.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bdpiprava/alertsearch/search"
	"github.com/bdpiprava/alertsearch/xlog"
)

const (
	// DefaultIndex is the index read by the operations without an index argument
	DefaultIndex = "wazuh-alerts"
	// DefaultTopLimit is the ranking length used when the caller has no preference
	DefaultTopLimit = 5
	// DefaultScanLimit bounds the number of hits fetched for a ranking
	DefaultScanLimit = 10000
)

// SearchClient is the set of backend capabilities the dashboard is built on
type SearchClient interface {
	ListIndices(ctx context.Context) (search.Indices, error)
	Search(ctx context.Context, query search.Query) (*search.Result, error)
	Count(ctx context.Context, query search.Query) (int64, error)
}

// AlertsSummary is the number of alerts raised within the last TimeRangeHours
type AlertsSummary struct {
	TotalAlerts    int64     `json:"total_alerts"`
	TimeRangeHours int       `json:"time_range_hours"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

// AgentRanking is the number of alerts reported by one agent
type AgentRanking struct {
	AgentID    string `json:"agent_id"`
	AgentName  string `json:"agent_name,omitempty"`
	AlertCount int    `json:"alert_count"`
}

// RuleRanking is the number of alerts raised by one rule
type RuleRanking struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description,omitempty"`
	AlertCount  int    `json:"alert_count"`
}

// Dashboard computes alert analytics over a SearchClient
type Dashboard struct {
	client                SearchClient
	index                 string
	scanLimit             int
	now                   func() time.Time
	log                   logrus.FieldLogger
	clientSideLevelFilter bool
}

// Option is a function that takes a pointer to Dashboard and modifies it
type Option func(*Dashboard)

// WithIndex sets the index read by TopAgents, TopRules and CriticalAlerts
func WithIndex(index string) Option {
	return func(d *Dashboard) {
		d.index = index
	}
}

// WithScanLimit sets how many hits a ranking reads at most
func WithScanLimit(limit int) Option {
	return func(d *Dashboard) {
		d.scanLimit = limit
	}
}

// WithClock sets the source of the current time
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		d.now = now
	}
}

// WithLogger sets the logger, a logger carried by the call context wins
func WithLogger(logger logrus.FieldLogger) Option {
	return func(d *Dashboard) {
		d.log = logger
	}
}

// WithClientSideLevelFilter stops sending the level range to the backend, for backends without range queries.
// Hits are then filtered in memory only, so fewer than maxHits critical alerts may be returned.
func WithClientSideLevelFilter() Option {
	return func(d *Dashboard) {
		d.clientSideLevelFilter = true
	}
}

// New returns a dashboard reading through the client
func New(client SearchClient, opts ...Option) *Dashboard {
	d := &Dashboard{
		client:    client,
		index:     DefaultIndex,
		scanLimit: DefaultScanLimit,
		now:       time.Now,
		log:       xlog.Base(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.scanLimit <= 0 {
		d.scanLimit = DefaultScanLimit
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.log == nil {
		d.log = xlog.Base()
	}
	return d
}

// Index returns the index read by the operations without an index argument
func (d *Dashboard) Index() string {
	return d.index
}

// AlertsSummary counts the alerts of the index raised within [now - hours, now]
func (d *Dashboard) AlertsSummary(ctx context.Context, index string, hours int) (*AlertsSummary, error) {
	log := d.logger(ctx).WithFields(logrus.Fields{
		"func":  "AlertsSummary",
		"index": index,
		"hours": hours,
	})

	if err := search.ValidateHours(search.OpAlertsSummary, "time_range_hours", hours); err != nil {
		return nil, err
	}

	window := search.LastHours(d.now().UTC(), hours)
	query := search.NewQuery(index, search.MatchAll, 1).Within(window)
	if err := query.ValidateScope(search.OpAlertsSummary); err != nil {
		return nil, err
	}

	log.Debug("counting alerts")
	total, err := d.client.Count(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, search.OpAlertsSummary)
	}

	log.Debugf("counted %d alerts", total)
	return &AlertsSummary{
		TotalAlerts:    total,
		TimeRangeHours: hours,
		Start:          window.Start,
		End:            window.End,
	}, nil
}

// TopAgents ranks the agents by number of alerts, most alerts first.
// Agents with the same count keep the order in which they first appear in the search result.
func (d *Dashboard) TopAgents(ctx context.Context, limit int) ([]AgentRanking, error) {
	log := d.logger(ctx).WithFields(logrus.Fields{
		"func":  "TopAgents",
		"index": d.index,
		"limit": limit,
	})

	hits, err := d.scan(ctx, log, search.OpTopAgents, limit)
	if err != nil {
		return nil, err
	}

	ranked, skipped := rank(hits, limit, func(event search.Event) (string, bool) { return event.AgentID() })
	if skipped > 0 {
		log.Debugf("skipped %d alerts without agent.id", skipped)
	}
	result := make([]AgentRanking, 0, len(ranked))
	for _, entry := range ranked {
		name, _ := entry.first.AgentName()
		result = append(result, AgentRanking{AgentID: entry.key, AgentName: name, AlertCount: entry.count})
	}

	log.Debugf("ranked %d agents out of %d hits", len(result), len(hits))
	return result, nil
}

// TopRules ranks the rules by number of alerts with the same ordering rules as TopAgents
func (d *Dashboard) TopRules(ctx context.Context, limit int) ([]RuleRanking, error) {
	log := d.logger(ctx).WithFields(logrus.Fields{
		"func":  "TopRules",
		"index": d.index,
		"limit": limit,
	})

	hits, err := d.scan(ctx, log, search.OpTopRules, limit)
	if err != nil {
		return nil, err
	}

	ranked, skipped := rank(hits, limit, func(event search.Event) (string, bool) { return event.RuleID() })
	if skipped > 0 {
		log.Debugf("skipped %d alerts without rule.id", skipped)
	}
	result := make([]RuleRanking, 0, len(ranked))
	for _, entry := range ranked {
		description, _ := entry.first.RuleDescription()
		result = append(result, RuleRanking{RuleID: entry.key, Description: description, AlertCount: entry.count})
	}

	log.Debugf("ranked %d rules out of %d hits", len(result), len(hits))
	return result, nil
}

// CriticalAlerts returns at most maxHits alerts whose rule.level is at least minLevel, in backend order.
// Alerts without a numeric rule.level are never critical.
func (d *Dashboard) CriticalAlerts(ctx context.Context, minLevel, maxHits int) ([]search.Event, error) {
	log := d.logger(ctx).WithFields(logrus.Fields{
		"func":      "CriticalAlerts",
		"index":     d.index,
		"min_level": minLevel,
		"max_hits":  maxHits,
	})

	if maxHits <= 0 {
		return nil, search.NewValidationError(search.OpCriticalAlerts, "max_hits", "must be positive, got %d", maxHits)
	}

	query := search.NewQuery(d.index, d.levelExpression(minLevel), maxHits)
	if err := query.Validate(search.OpCriticalAlerts); err != nil {
		return nil, err
	}

	log.Debug("searching critical alerts")
	result, err := d.client.Search(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, search.OpCriticalAlerts)
	}

	critical := make([]search.Event, 0, len(result.Hits))
	for _, event := range result.Hits {
		if len(critical) == maxHits {
			break
		}

		level, ok := event.RuleLevel()
		if !ok {
			log.Debug("skipping alert without rule level")
			continue
		}
		if level >= int64(minLevel) {
			critical = append(critical, event)
		}
	}

	log.Debugf("found %d critical alerts out of %d hits", len(critical), len(result.Hits))
	return critical, nil
}

// scan validates the ranking limit and fetches the hits a ranking is computed from
func (d *Dashboard) scan(ctx context.Context, log logrus.FieldLogger, op string, limit int) ([]search.Event, error) {
	if limit <= 0 {
		return nil, search.NewValidationError(op, "limit", "must be positive, got %d", limit)
	}

	query := search.NewQuery(d.index, search.MatchAll, d.scanLimit)
	if err := query.Validate(op); err != nil {
		return nil, err
	}

	log.Debug("scanning alerts")
	result, err := d.client.Search(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	if result.NumHits > int64(len(result.Hits)) {
		log.Debugf("ranking covers %d of %d matching alerts", len(result.Hits), result.NumHits)
	}
	return result.Hits, nil
}

// levelExpression returns the backend query selecting alerts at or above the level
func (d *Dashboard) levelExpression(minLevel int) string {
	if d.clientSideLevelFilter {
		return search.MatchAll
	}
	return fmt.Sprintf("%s:>=%d", search.FieldRuleLevel, minLevel)
}

// logger returns the logger carried by ctx or the dashboard logger
func (d *Dashboard) logger(ctx context.Context) logrus.FieldLogger {
	if logger, ok := xlog.Lookup(ctx); ok {
		return logger
	}
	return d.log
}

// OverviewRequest selects what Overview computes
type OverviewRequest struct {
	TimeRangeHours int
	TopLimit       int
	MinLevel       int
	MaxCritical    int
}

// Overview combines the analytics of the dashboard index
type Overview struct {
	Indices        search.Indices `json:"indices"`
	Summary        *AlertsSummary `json:"summary"`
	TopAgents      []AgentRanking `json:"top_agents"`
	CriticalAlerts []search.Event `json:"critical_alerts"`
}

// Overview runs the summary, the agent ranking and the critical alert search concurrently.
// The call fails as a whole when any of them fails.
func (d *Dashboard) Overview(ctx context.Context, req OverviewRequest) (*Overview, error) {
	log := d.logger(ctx).WithFields(logrus.Fields{
		"func":  "Overview",
		"index": d.index,
	})

	if err := search.ValidateHours(search.OpOverview, "time_range_hours", req.TimeRangeHours); err != nil {
		return nil, err
	}
	if req.TopLimit <= 0 {
		return nil, search.NewValidationError(search.OpOverview, "top_limit", "must be positive, got %d", req.TopLimit)
	}
	if req.MaxCritical <= 0 {
		return nil, search.NewValidationError(search.OpOverview, "max_critical", "must be positive, got %d", req.MaxCritical)
	}

	log.Debug("listing indices")
	indices, err := d.client.ListIndices(ctx)
	if err != nil {
		return nil, errors.Wrap(err, search.OpOverview)
	}
	if !indices.Contains(d.index) {
		return nil, &search.IndexNotFoundError{Op: search.OpOverview, Index: d.index}
	}

	overview := &Overview{Indices: indices}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := d.AlertsSummary(gctx, d.index, req.TimeRangeHours)
		overview.Summary = summary
		return err
	})
	g.Go(func() error {
		agents, err := d.TopAgents(gctx, req.TopLimit)
		overview.TopAgents = agents
		return err
	})
	g.Go(func() error {
		critical, err := d.CriticalAlerts(gctx, req.MinLevel, req.MaxCritical)
		overview.CriticalAlerts = critical
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, search.OpOverview)
	}

	log.Debug("overview completed")
	return overview, nil
}
