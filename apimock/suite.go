// Package apimock serves a fake search backend from a WireMock server.
//
// Every test gets its own URL prefix on the shared server, so the stubs of concurrent suites never collide.
// The WireMock address is read from the api-mock section of .alertsearch.config.yml:
//
//	api-mock:
//	  address: http://localhost:8080
package apimock

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"github.com/wiremock/go-wiremock"

	"github.com/bdpiprava/alertsearch/internal"
	"github.com/bdpiprava/alertsearch/search"
	"github.com/bdpiprava/alertsearch/xlog"
)

// DefaultAddress is the WireMock address used when no config file sets one
const DefaultAddress = "http://localhost:8080"

var testNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// configRoot is the part of the config file read by this package
type configRoot struct {
	APIMock *Config `yaml:"api-mock"`
}

// Config is the configuration for the API mock
type Config struct {
	Address string `yaml:"address"`
}

var (
	loadConfig   sync.Once
	loadedConfig Config
	loadErr      error
)

// LoadConfig reads the api-mock section of the config file once
func LoadConfig() (Config, error) {
	loadConfig.Do(func() {
		loadedConfig = Config{Address: DefaultAddress}

		root, err := internal.ReadConfigAs[configRoot]()
		if errors.Is(err, internal.ErrConfigNotFound) {
			return
		}
		if err != nil {
			loadErr = errors.Wrap(err, "failed to read api mock config")
			return
		}

		if root.APIMock != nil && strings.TrimSpace(root.APIMock.Address) != "" {
			loadedConfig.Address = strings.TrimRight(root.APIMock.Address, "/")
		}
	})
	return loadedConfig, loadErr
}

// Suite is a suite that stubs a search backend per test
type Suite struct {
	suite.Suite
	address string
	client  *wiremock.Client
	mu      sync.Mutex
	stubs   []*wiremock.StubRule
}

// SetupSuite connects to the WireMock server
func (s *Suite) SetupSuite() {
	config, err := LoadConfig()
	s.Require().NoError(err)

	s.address = config.Address
	s.client = wiremock.NewClient(s.address)
}

// TearDownTest removes the stubs registered by the test
func (s *Suite) TearDownTest() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stub := range s.stubs {
		if err := s.client.DeleteStub(stub); err != nil {
			s.logger().WithError(err).Warn("failed to delete stub")
		}
	}
	s.stubs = nil
}

// BackendURL returns the base URL of the fake backend of the running test
func (s *Suite) BackendURL() string {
	u, err := backendURL(s.address, s.prefix())
	s.Require().NoError(err)
	return u
}

// FromFile registers the stubs of the fixture file and returns the backend URL
func (s *Suite) FromFile(file string, params map[string]string) string {
	fixture, err := ReadFixture(file)
	s.Require().NoError(err)

	for _, stub := range fixture.Stubs {
		s.Stub(stub, params)
	}
	return s.BackendURL()
}

// Stub registers one stub for the running test
func (s *Suite) Stub(stub Stub, params map[string]string) {
	rule := stub.toStubRule(s.prefix(), params)
	s.Require().NoError(s.client.StubFor(rule))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = append(s.stubs, rule)
}

// StubHealthy makes the backend report ready
func (s *Suite) StubHealthy() {
	s.Stub(Stub{
		Request:  StubRequest{Method: "GET", Path: "health/readyz"},
		Response: StubResponse{Status: 200, Body: "true", Headers: jsonHeaders()},
	}, nil)
}

// StubIndices makes the backend list the indices
func (s *Suite) StubIndices(ids ...string) {
	entries := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, map[string]any{
			"index_uid":    fmt.Sprintf("%s:01JAZ0000000000000000000", id),
			"index_config": map[string]any{"index_id": id, "index_uri": "file:///quickwit/indexes/" + id},
		})
	}

	s.Stub(Stub{
		Request:  StubRequest{Method: "GET", Path: "api/v1/indexes"},
		Response: StubResponse{Status: 200, Body: s.marshal(entries), Headers: jsonHeaders()},
	}, nil)
}

// StubSearch makes every search on the index return the hits, numHits is the reported total
func (s *Suite) StubSearch(index string, numHits int64, hits ...search.Event) {
	if hits == nil {
		hits = []search.Event{}
	}

	s.Stub(Stub{
		Request: StubRequest{Method: "POST", Path: "api/v1/" + regexp.QuoteMeta(index) + "/search"},
		Response: StubResponse{
			Status:  200,
			Body:    s.marshal(map[string]any{"num_hits": numHits, "hits": hits, "elapsed_time_micros": 120, "errors": []string{}}),
			Headers: jsonHeaders(),
		},
	}, nil)
}

// RequestCount returns how many requests of the running test matched the method and path
func (s *Suite) RequestCount(method, path string) int64 {
	matcher := wiremock.URLPathEqualTo(joinPrefix(s.prefix(), strings.TrimLeft(path, "/")))
	count, err := s.client.GetCountRequests(wiremock.NewRequest(strings.ToUpper(method), matcher))
	s.Require().NoError(err)
	return count
}

func (s *Suite) prefix() string {
	return testNameSanitizer.ReplaceAllString(s.T().Name(), "_")
}

func (s *Suite) marshal(v any) string {
	data, err := json.Marshal(v)
	s.Require().NoError(err)
	return string(data)
}

func (s *Suite) logger() logrus.FieldLogger {
	return xlog.Base().WithField("test", s.T().Name())
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
