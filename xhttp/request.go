package xhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodHead:    true,
}

// Request is a request struct
type Request struct {
	opts []RequestOption
}

// NewRequest is a function that returns a new request with the given options
func NewRequest(method string, opts ...RequestOption) *Request {
	opts = append(opts, func(c *RequestOptions) {
		c.Method = method
	})
	return &Request{opts: opts}
}

// WithContext is a function that sets the context the request is bound to
func WithContext(ctx context.Context) RequestOption {
	return func(c *RequestOptions) {
		if ctx != nil {
			c.Context = ctx
		}
	}
}

// WithBaseURL is a function that sets the base URL for the request
func WithBaseURL(baseURL string) RequestOption {
	return func(c *RequestOptions) {
		c.BaseURL = baseURL
	}
}

// WithPath is a function that sets the base URL for the request
func WithPath(paths ...string) RequestOption {
	return func(c *RequestOptions) {
		u := &url.URL{}
		c.Path = u.JoinPath(paths...).String()
	}
}

// WithTimeout is a function that overrides the client timeout for the request
func WithTimeout(timeout time.Duration) RequestOption {
	return func(c *RequestOptions) {
		c.Timeout = timeout
	}
}

// WithHeader is a function that adds the values to the request header, after the client defaults
func WithHeader(key string, values ...string) RequestOption {
	return func(c *RequestOptions) {
		for _, value := range values {
			c.Headers.Add(key, value)
		}
	}
}

// WithQueryParam is a function that sets the query parameters for the request
func WithQueryParam(key string, values ...string) RequestOption {
	return func(c *RequestOptions) {
		if cur, ok := c.QueryParams[key]; ok {
			c.QueryParams[key] = append(cur, values...)
			return
		}
		c.QueryParams[key] = values
	}
}

// WithJSONBody is a function that sets the JSON encoded value as body
func WithJSONBody(value any) RequestOption {
	return func(c *RequestOptions) {
		content, err := json.Marshal(value)
		if err != nil {
			c.err = errors.Wrapf(err, "failed to marshal request body of type %T", value)
			return
		}
		c.Body = bytes.NewReader(content)
		c.Headers.Set("Content-Type", "application/json")
	}
}

// WithReader is a function that streams the body from the reader
func WithReader(contentType string, body io.Reader) RequestOption {
	return func(c *RequestOptions) {
		c.Body = body
		c.Headers.Set("Content-Type", contentType)
	}
}
