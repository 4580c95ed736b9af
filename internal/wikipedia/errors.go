package wikipedia

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the requested page does not exist.
var ErrNotFound = errors.New("page not found")

// UpstreamError reports a failed or malformed exchange with the API.
// StatusCode is zero when the request never produced a response.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("wikipedia %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("wikipedia %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// retryable reports whether a failed request is worth repeating: transport
// failures, rate limiting and server errors.
func (e *UpstreamError) retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// apiError is the error object the action API returns with a 200 status.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Info)
}
