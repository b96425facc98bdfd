package secondary

import "fmt"

// Failure tags an error with its dead-letter reason. Processors wrap the
// errors whose reason they know (explicit remote rejections, malformed
// responses); anything untagged is captured as an exception.
type Failure struct {
	Reason string
	Err    error
}

// NewFailure wraps err with a dead-letter reason.
func NewFailure(reason string, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

// Unwrap exposes the wrapped error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// APIError is the typed error raised by the storefront client on transport
// or HTTP failure. A zero StatusCode means the request never got a response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("storefront %s: no response", e.Op)
	}
	return fmt.Sprintf("storefront %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// IsRejection reports whether the error is an explicit remote rejection
// (HTTP 4xx) rather than a transient transport or server failure.
func (e *APIError) IsRejection() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
