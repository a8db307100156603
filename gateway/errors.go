package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// APIError is the problem-details shape the backend returns on failed
// requests: a title plus an optional field->messages validation map.
type APIError struct {
	Status   int                 `json:"status,omitempty"`
	Title    string              `json:"title,omitempty"`
	Instance string              `json:"instance,omitempty"`
	TraceID  string              `json:"traceId,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, msg)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}

// Message flattens the error body into a single user-displayable string,
// preferring field validation messages over the generic title.
func (e *APIError) Message() string {
	if len(e.Errors) > 0 {
		fields := make([]string, 0, len(e.Errors))
		for field := range e.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		var msgs []string
		for _, field := range fields {
			msgs = append(msgs, e.Errors[field]...)
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, ". ")
		}
	}
	return e.Title
}

// decodeAPIError builds an APIError from a non-2xx response. Bodies that are
// not valid problem-details JSON still produce a usable error carrying the
// status code.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	apiErr.Status = resp.StatusCode
	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0 when err does not
// wrap an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
