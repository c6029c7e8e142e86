package xhttp

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bdpiprava/alertsearch/xlog"
)

const (
	defaultTimeout = 10 * time.Second
)

// Client is a struct that holds the options and base URL for the client
type Client struct {
	clientOptions ClientOptions
	client        *http.Client
}

// NewClient is a function that returns a new client with the given options and base URL
func NewClient(opts ...ClientOption) *Client {
	cOpts := ClientOptions{
		Timeout: defaultTimeout,
		Headers: http.Header{},
		BaseURL: "",
		Logger:  xlog.Base(),
	}
	for _, opt := range opts {
		opt(&cOpts)
	}

	httpClient := cOpts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		clientOptions: cOpts,
		client:        httpClient,
	}
}

// Execute executes the request and decodes a successful JSON body into out.
// A nil out skips decoding, the raw body is always kept on the response.
//
// A nil response with an error means the request never produced a complete answer: it could not be built,
// the transport failed, the deadline expired or the body could not be read in full.
// A response with an error means the answer arrived but could not be decoded into out.
func (c *Client) Execute(req Request, out any) (*Response, error) {
	return execute(c, &req, out)
}

// WithDefaultTimeout is a function that sets the timeout for the client
func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientOptions) {
		c.Timeout = timeout
	}
}

// WithDefaultBaseURL is a function that sets the base URL for the client
func WithDefaultBaseURL(baseURL string) ClientOption {
	return func(c *ClientOptions) {
		c.BaseURL = baseURL
	}
}

// WithDefaultHeaders is a function that sets the headers for the client
func WithDefaultHeaders(headers http.Header) ClientOption {
	return func(c *ClientOptions) {
		if headers == nil {
			return
		}

		for k, v := range headers {
			c.Headers[k] = v
		}
	}
}

// WithDefaultHeader is a function that sets the headers for the client
func WithDefaultHeader(key string, values ...string) ClientOption {
	return func(c *ClientOptions) {
		if cur, ok := c.Headers[key]; ok {
			c.Headers[key] = append(cur, values...)
			return
		}
		c.Headers[key] = values
	}
}

// WithDefaultBasicAuth is a function that sets the basic auth credentials for every request
func WithDefaultBasicAuth(username, password string) ClientOption {
	return func(c *ClientOptions) {
		c.BasicAuth = BasicAuth{Username: username, Password: password}
	}
}

// WithHTTPClient is a function that sets the underlying http client, e.g. to share a transport
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientOptions) {
		c.HTTPClient = client
	}
}

// WithLogger is a function that sets the logger used to trace requests
func WithLogger(logger logrus.FieldLogger) ClientOption {
	return func(c *ClientOptions) {
		if logger != nil {
			c.Logger = logger
		}
	}
}
