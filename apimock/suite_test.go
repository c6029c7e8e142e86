//go:build integration

package apimock_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"

	"github.com/bdpiprava/alertsearch"
	"github.com/bdpiprava/alertsearch/apimock"
	"github.com/bdpiprava/alertsearch/dashboard"
	"github.com/bdpiprava/alertsearch/search"
	"github.com/bdpiprava/alertsearch/xlog"
)

const fixture = "testdata/wazuh-alerts.yaml"

type APIMockTestSuite struct {
	apimock.Suite
}

func TestAPIMockTestSuite(t *testing.T) {
	suite.Run(t, new(APIMockTestSuite))
}

func (s *APIMockTestSuite) newClient(url string) *alertsearch.Client {
	client, err := alertsearch.New([]string{url}, alertsearch.WithTimeout(2*time.Second))
	s.Require().NoError(err)
	return client
}

func (s *APIMockTestSuite) Test_FromFile_ServesBackendUnderTestPrefix() {
	url := s.FromFile(fixture, map[string]string{"index": "wazuh-alerts", "total": "3"})

	s.Equal(s.BackendURL(), url)
	s.Contains(url, "Test_FromFile_ServesBackendUnderTestPrefix")
}

func (s *APIMockTestSuite) Test_Client() {
	client := s.newClient(s.FromFile(fixture, map[string]string{"index": "wazuh-alerts", "total": "3"}))
	ctx := xlog.NewContext(s.T().Name())

	ready, err := client.HealthCheck(ctx)
	s.Require().NoError(err)
	s.True(ready)

	indices, err := client.ListIndices(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"wazuh-alerts"}, indices.Names())

	ingested, err := client.Ingest(ctx, "wazuh-alerts", []search.Event{
		{"agent": map[string]any{"id": "001"}, "rule": map[string]any{"level": 3}},
		{"agent": map[string]any{"id": "002"}, "rule": map[string]any{"level": 5}},
		{"agent": map[string]any{"id": "001"}, "rule": map[string]any{"level": 12}},
	}, search.CommitForce)
	s.Require().NoError(err)
	s.Equal(int64(3), ingested.NumIngestedDocs)

	count, err := client.Count(ctx, search.NewQuery("wazuh-alerts", search.MatchAll, 0))
	s.Require().NoError(err)
	s.Equal(int64(3), count)

	result, err := client.Search(ctx, search.NewQuery("wazuh-alerts", search.MatchAll, 10))
	s.Require().NoError(err)
	s.Len(result.Hits, 3)

	s.Equal(int64(1), s.RequestCount(http.MethodPost, "api/v1/wazuh-alerts/ingest"))
	s.Equal(int64(2), s.RequestCount(http.MethodPost, "api/v1/wazuh-alerts/search"))
}

func (s *APIMockTestSuite) Test_Client_UnavailableBackend() {
	client := s.newClient(s.FromFile(fixture, map[string]string{"index": "wazuh-alerts", "total": "3"}))

	_, err := client.Search(xlog.NewContext(s.T().Name()), search.NewQuery("unavailable", search.MatchAll, 10))

	var connErr *search.ConnectionError
	s.Require().ErrorAs(err, &connErr)
	s.True(search.IsTransient(err))
}

func (s *APIMockTestSuite) Test_Client_Timeout() {
	s.Stub(apimock.Stub{
		Request:  apimock.StubRequest{Method: http.MethodPost, Path: "api/v1/slow/search"},
		Response: apimock.StubResponse{Status: http.StatusOK, Body: `{"num_hits": 0, "hits": []}`, Delay: time.Second},
	}, nil)
	client, err := alertsearch.New([]string{s.BackendURL()}, alertsearch.WithTimeout(100*time.Millisecond))
	s.Require().NoError(err)

	_, err = client.Search(xlog.NewContext(s.T().Name()), search.NewQuery("slow", search.MatchAll, 10))

	var connErr *search.ConnectionError
	s.Require().ErrorAs(err, &connErr)
}

func (s *APIMockTestSuite) Test_Dashboard() {
	client := s.newClient(s.FromFile(fixture, map[string]string{"index": "wazuh-alerts", "total": "3"}))
	board := dashboard.New(client)
	ctx := xlog.NewContext(s.T().Name())

	agents, err := board.TopAgents(ctx, dashboard.DefaultTopLimit)
	s.Require().NoError(err)
	s.Empty(cmp.Diff([]dashboard.AgentRanking{
		{AgentID: "001", AgentName: "web-01", AlertCount: 2},
		{AgentID: "002", AgentName: "db-01", AlertCount: 1},
	}, agents))

	critical, err := board.CriticalAlerts(ctx, 12, 50)
	s.Require().NoError(err)
	s.Require().Len(critical, 1)
	s.AssertEventContains(critical[0], search.Event{
		"agent": map[string]any{"id": "001"},
		"rule":  map[string]any{"id": "5712", "level": 12},
	})

	overview, err := board.Overview(ctx, dashboard.OverviewRequest{TimeRangeHours: 24, TopLimit: 5, MinLevel: 12, MaxCritical: 50})
	s.Require().NoError(err)
	s.Equal(int64(3), overview.Summary.TotalAlerts)
	s.Len(overview.TopAgents, 2)
	s.Len(overview.CriticalAlerts, 1)
}

func (s *APIMockTestSuite) Test_StubHelpers() {
	s.StubHealthy()
	s.StubIndices("wazuh-alerts", "wazuh-archives")
	s.StubSearch("wazuh-alerts", 120, search.Event{"agent": map[string]any{"id": "007"}, "rule": map[string]any{"level": 14}})
	client := s.newClient(s.BackendURL())
	ctx := xlog.NewContext(s.T().Name())

	ready, err := client.HealthCheck(ctx)
	s.Require().NoError(err)
	s.True(ready)

	indices, err := client.ListIndices(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"wazuh-alerts", "wazuh-archives"}, indices.Names())

	result, err := client.Search(ctx, search.NewQuery("wazuh-alerts", search.MatchAll, 10))
	s.Require().NoError(err)
	s.Equal(int64(120), result.NumHits)
	s.Len(result.Hits, 1)
}
