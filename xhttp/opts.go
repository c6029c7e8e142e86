package xhttp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// BasicAuth is a struct that holds the username and password for basic authentication
type BasicAuth struct {
	Username string
	Password string
}

// empty reports whether no credentials are set
func (b BasicAuth) empty() bool {
	return b.Username == "" && b.Password == ""
}

// ClientOptions is a struct that holds the options for the client
type ClientOptions struct {
	BaseURL    string
	Headers    http.Header
	BasicAuth  BasicAuth
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// ClientOption is a function that takes a pointer to Options and modifies it
type ClientOption func(client *ClientOptions)

// RequestOptions is a struct that holds the options for the request
type RequestOptions struct {
	Context     context.Context
	Method      string
	BaseURL     string
	Headers     http.Header
	QueryParams url.Values
	Body        io.Reader
	BasicAuth   BasicAuth
	Path        string
	Timeout     time.Duration

	// err holds a failure raised while applying an option, reported by buildRequest
	err error
}

// RequestOption is a function that takes a pointer to Options and modifies it
type RequestOption func(*RequestOptions)
