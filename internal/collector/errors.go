package collector

import "fmt"

// TransportError means the upstream could not be reached at all.
type TransportError struct {
	Campground string
	Month      string
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch failed for %s/%s: %v", e.Campground, e.Month, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError is a non-2xx response from the availability API.
type UpstreamError struct {
	Campground string
	Month      string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP %d for %s/%s", e.StatusCode, e.Campground, e.Month)
}
