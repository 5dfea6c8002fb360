package ports

import (
	"context"
	"errors"
	"fmt"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Provider Errors
	ErrTransport            = errors.New("market data transport failure")
	ErrMalformedResponse    = errors.New("malformed market data response")
	ErrEmptyResponse        = errors.New("market data unavailable")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("provider authentication failed (check API keys)")

	// Indicator Errors
	ErrInvalidWindow       = errors.New("lookback window must be positive")
	ErrInsufficientHistory = errors.New("insufficient historical depth")
	ErrDegenerateInput     = errors.New("degenerate indicator input")
	ErrZeroPriorClose      = fmt.Errorf("%w: prior close is zero", ErrDegenerateInput)
	ErrZeroVolumeBaseline  = fmt.Errorf("%w: average daily volume is zero", ErrDegenerateInput)
	ErrZeroMovingAverage   = fmt.Errorf("%w: short moving average is zero", ErrDegenerateInput)

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)

// Failure kind labels, stable for display and metrics.
const (
	KindTransport           = "transport"
	KindMalformed           = "malformed"
	KindEmpty               = "empty"
	KindTimeout             = "timeout"
	KindRateLimited         = "rate_limited"
	KindCanceled            = "canceled"
	KindAuth                = "auth"
	KindInsufficientHistory = "insufficient_history"
	KindDegenerateInput     = "degenerate_input"
	KindInvalidWindow       = "invalid_window"
	KindUnknown             = "unknown"
)

// FailureKind maps an error to its taxonomy label. It returns "" for nil.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientHistory):
		return KindInsufficientHistory
	case errors.Is(err, ErrDegenerateInput):
		return KindDegenerateInput
	case errors.Is(err, ErrInvalidWindow):
		return KindInvalidWindow
	case errors.Is(err, ErrEmptyResponse), errors.Is(err, ErrNotFound):
		return KindEmpty
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrAuthenticationFailed):
		return KindAuth
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrContextCanceled), errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindUnknown
	}
}
