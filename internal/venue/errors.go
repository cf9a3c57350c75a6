package venue

import "fmt"

// APIError represents an error returned by a venue API.
type APIError struct {
	Venue      string
	StatusCode int    // HTTP status, 0 if the request never completed
	Code       string // venue-level error code, "" if none
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s api error %d (code %s): %s", e.Venue, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s api error %d: %s", e.Venue, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
