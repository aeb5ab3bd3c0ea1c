package wcl

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrQuotaBlocked is returned when the quota tracker refuses a request
	// because the remaining upstream point budget is critical.
	ErrQuotaBlocked = errors.New("request blocked: upstream quota critical")

	// ErrNotAuthenticated is returned when a data API call is attempted
	// before a token has been acquired.
	ErrNotAuthenticated = errors.New("client is not authenticated")
)

// AuthError represents a failed client-credentials exchange. It is run-fatal:
// callers abort before any jobs start.
type AuthError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface. The raw response body is included
// for diagnosability.
func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (status %d): %s", e.StatusCode, e.Body)
}

// APIError represents a non-success response from the data API. It is
// job-fatal only: the owning job fails, sibling jobs continue.
type APIError struct {
	StatusCode int
	Query      string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error on %s query (status %d): %s", e.Query, e.StatusCode, e.Body)
}
