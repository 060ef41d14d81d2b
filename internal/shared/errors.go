package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Upstream (oracle) errors
	ErrAPIRequest          = fmt.Errorf("API request failed")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrTimeout             = fmt.Errorf("operation timed out")
	ErrRateLimited         = fmt.Errorf("rate limit exceeded")
	ErrEmptyResult         = fmt.Errorf("no results")
	ErrMalformedResponse   = fmt.Errorf("malformed response")
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrRecommendationEmpty = fmt.Errorf("no recommendation produced")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrUnknownGenre    = fmt.Errorf("unknown genre")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")
)
