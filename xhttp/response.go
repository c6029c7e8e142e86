package xhttp

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

const successStatusCode = 299

// Response is a response struct that holds the status code, body and raw body
type Response struct {
	Status     string
	Header     http.Header
	StatusCode int
	Body       any
	RawBody    []byte
}

// IsSuccess reports whether the status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode <= successStatusCode
}

// newResponse is a function that creates a new response, the body is read in full before anything is decoded
func newResponse(httpResp *http.Response, out any) (*Response, error) {
	defer closeSilently(httpResp.Body)

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	response := &Response{
		Header:     httpResp.Header,
		Status:     httpResp.Status,
		StatusCode: httpResp.StatusCode,
		RawBody:    bodyBytes,
	}

	if !response.IsSuccess() {
		response.Body = tryParsingErrorResponse(bodyBytes)
		return response, nil
	}

	if out == nil {
		return response, nil
	}

	err = json.Unmarshal(bodyBytes, out)
	if err != nil {
		return response, errors.Wrapf(err, "failed to unmarshal response as type %T", out)
	}

	response.Body = out
	return response, nil
}

// tryParsingErrorResponse is a function that tries to parse the error response as JSON object or returns the raw body
func tryParsingErrorResponse(contentBytes []byte) any {
	parsedBody := make(map[string]any)
	if json.Unmarshal(contentBytes, &parsedBody) != nil {
		return string(contentBytes)
	}
	return parsedBody
}
