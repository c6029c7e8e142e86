package apimock

import (
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/wiremock/go-wiremock"
	"gopkg.in/yaml.v3"
)

// {{ name }} is replaced by the value of name in the template params
var templateMatcher = regexp.MustCompile(`{{\s*(.*?)\s*}}`)

// Fixture is the content of a fixture file, the stubs of one backend
type Fixture struct {
	Stubs []Stub `yaml:"stubs" json:"stubs"`
}

// Stub is one canned request and response pair
type Stub struct {
	Priority int64        `yaml:"priority" json:"priority"`
	Request  StubRequest  `yaml:"request" json:"request"`
	Response StubResponse `yaml:"response" json:"response"`
}

// StubRequest is the request a stub matches, Path is a regular expression relative to the backend URL
type StubRequest struct {
	Method       string            `yaml:"method" json:"method"`
	Path         string            `yaml:"path" json:"path"`
	Body         string            `yaml:"body" json:"body"`
	BodyContains []string          `yaml:"bodyContains" json:"bodyContains"`
	Headers      map[string]string `yaml:"headers" json:"headers"`
	QueryParams  map[string]string `yaml:"queryParams" json:"queryParams"`
}

// StubResponse is the response a stub returns
type StubResponse struct {
	Status  int64             `yaml:"status" json:"status"`
	Body    string            `yaml:"body" json:"body"`
	Headers map[string]string `yaml:"headers" json:"headers"`
	Delay   time.Duration     `yaml:"delay" json:"delay"`
}

// ReadFixture reads the fixture file
func ReadFixture(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fixture Fixture
	if err = yaml.Unmarshal(content, &fixture); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal api mock data from file: %v", path)
	}
	return &fixture, nil
}

// toStubRule converts the stub to a wiremock rule served under the prefix
func (s Stub) toStubRule(prefix string, params map[string]string) *wiremock.StubRule {
	priority := s.Priority
	if priority <= 0 {
		priority = 1
	}
	return s.Request.toStubRule(prefix, params).
		WillReturnResponse(s.Response.toResponse(params)).
		AtPriority(priority)
}

func (r StubRequest) toStubRule(prefix string, params map[string]string) *wiremock.StubRule {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = "GET"
	}

	path := strings.TrimLeft(resolveTemplateValue(r.Path, params), "/")
	rule := wiremock.NewStubRule(method, wiremock.URLPathMatching(joinPrefix(prefix, path)))

	if body := strings.TrimSpace(resolveTemplateValue(r.Body, params)); body != "" {
		rule = rule.WithBodyPattern(wiremock.EqualToJson(body))
	}
	for _, fragment := range r.BodyContains {
		rule = rule.WithBodyPattern(wiremock.Contains(resolveTemplateValue(fragment, params)))
	}
	for name, value := range r.QueryParams {
		rule = rule.WithQueryParam(name, wiremock.Matching(resolveTemplateValue(value, params)))
	}
	for name, value := range r.Headers {
		rule = rule.WithHeader(name, wiremock.Matching(resolveTemplateValue(value, params)))
	}
	return rule
}

func (r StubResponse) toResponse(params map[string]string) wiremock.Response {
	status := r.Status
	if status == 0 {
		status = 200
	}

	resp := wiremock.NewResponse().
		WithBody(resolveTemplateValue(r.Body, params)).
		WithStatus(status)

	for name, value := range r.Headers {
		resp = resp.WithHeader(name, value)
	}
	if r.Delay > 0 {
		resp = resp.WithFixedDelay(r.Delay)
	}
	return resp
}

// joinPrefix returns the absolute path of the stub, the path keeps its regular expression syntax
func joinPrefix(prefix, path string) string {
	prefix = strings.Trim(prefix, "/")
	if path == "" {
		return "/" + prefix
	}
	return "/" + prefix + "/" + path
}

// resolveTemplateValue replaces every {{ name }} with params[name], unknown names resolve to an empty string
func resolveTemplateValue(str string, params map[string]string) string {
	return templateMatcher.ReplaceAllStringFunc(str, func(tmpl string) string {
		name := templateMatcher.FindStringSubmatch(tmpl)[1]
		return params[name]
	})
}

// backendURL returns the URL the stubs under prefix are served from
func backendURL(address, prefix string) (string, error) {
	return url.JoinPath(address, prefix)
}
