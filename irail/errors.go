// irail/errors.go
package irail

import "fmt"

// NetworkError means the upstream API could not be reached or did not answer in time.
type NetworkError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("irail: request to %s timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("irail: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UpstreamError means the upstream API answered, but not with a usable 2xx response.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("irail: bad response from %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("irail: %s returned status %d", e.URL, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Retryable reports whether a later attempt could succeed.
func (e *UpstreamError) Retryable() bool {
	return e.Err == nil && (e.StatusCode >= 500 || e.StatusCode == 429)
}
