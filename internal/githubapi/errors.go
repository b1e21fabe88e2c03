package githubapi

import "fmt"

// ErrorKind distinguishes the failure causes a caller may react to.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not-found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindRateLimited  ErrorKind = "rate-limited"
	KindUnknown      ErrorKind = "unknown"
)

// APIError is a failed hosting-API call with its cause preserved.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("githubapi: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
}

func kindForStatus(status int, rateRemaining string) ErrorKind {
	switch status {
	case 404:
		return KindNotFound
	case 401:
		return KindUnauthorized
	case 429:
		return KindRateLimited
	case 403:
		// GitHub signals primary rate limiting via 403 with a drained quota.
		if rateRemaining == "0" {
			return KindRateLimited
		}
		return KindUnauthorized
	default:
		return KindUnknown
	}
}
