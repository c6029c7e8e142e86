package xhttp

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HeaderRequestID carries the identifier generated for every request
const HeaderRequestID = "X-Request-ID"

// execute is a function that executes the request with given client and returns the response
func execute(client *Client, request *Request, out any) (*Response, error) {
	opts := buildOpts(client.clientOptions, request)
	ctx, cancel := context.WithTimeout(opts.Context, opts.Timeout)
	defer cancel()

	req, err := buildRequest(ctx, opts)
	if err != nil {
		return nil, err
	}

	log := client.clientOptions.Logger.WithFields(logrus.Fields{
		"method":     req.Method,
		"url":        req.URL.Redacted(),
		"request_id": req.Header.Get(HeaderRequestID),
	})

	log.Debug("executing request")
	started := time.Now()
	resp, err := client.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return nil, errors.Wrap(err, "failed to execute request")
	}

	response, err := newResponse(resp, out)
	if response != nil {
		log.WithFields(logrus.Fields{
			"status":  response.StatusCode,
			"elapsed": time.Since(started),
		}).Debug("request completed")
	}
	return response, err
}

// buildRequest is a function that builds the request from the given options
func buildRequest(ctx context.Context, opts RequestOptions) (*http.Request, error) {
	if opts.err != nil {
		return nil, opts.err
	}

	if _, ok := supportedMethods[strings.ToUpper(opts.Method)]; !ok {
		return nil, errors.Errorf("unsupported method: %s", opts.Method)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.BaseURL, opts.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.URL = req.URL.JoinPath(opts.Path)
	if !strings.HasPrefix(req.URL.Path, "/") {
		// JoinPath keeps the path relative when the base URL has none
		req.URL.Path = "/" + req.URL.Path
		if req.URL.RawPath != "" {
			req.URL.RawPath = "/" + req.URL.RawPath
		}
	}
	req.Header = opts.Headers
	req.URL.RawQuery = opts.QueryParams.Encode()

	if !opts.BasicAuth.empty() {
		req.SetBasicAuth(opts.BasicAuth.Username, opts.BasicAuth.Password)
	}

	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	return req, nil
}

// buildOpts is a function that builds the request options
func buildOpts(clientOpts ClientOptions, request *Request) RequestOptions {
	opts := RequestOptions{
		Headers:     http.Header{},
		BaseURL:     clientOpts.BaseURL,
		BasicAuth:   clientOpts.BasicAuth,
		Timeout:     clientOpts.Timeout,
		Method:      http.MethodGet,
		QueryParams: url.Values{},
		Context:     context.Background(),
	}

	for k, v := range clientOpts.Headers {
		opts.Headers[k] = append([]string(nil), v...)
	}

	for _, opt := range request.opts {
		opt(&opts)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return opts
}

func closeSilently(closable io.Closer) {
	_ = closable.Close()
}
