// Normalized device error codes with deterministic transport-error mapping.
//
// Transport implementations surface vendor-specific messages; the core only
// reasons about the four normalized codes below. Mapping is table-driven so
// no heuristics leak into callers.
package device

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized device errors.
var (
	ErrInvalidRange = errors.New("INVALID_RANGE")
	ErrBusy         = errors.New("BUSY")
	ErrUnavailable  = errors.New("UNAVAILABLE")
	ErrInternal     = errors.New("INTERNAL")
)

// errorTokens maps transport error message tokens to normalized codes.
// Categories are checked in order; unknown tokens fall through to INTERNAL.
var errorTokens = []struct {
	code   error
	tokens []string
}{
	{ErrInvalidRange, []string{
		"OUT_OF_RANGE",
		"INVALID_RANGE",
		"INVALID_PARAMETER",
		"BAD_VALUE",
		"STRENGTH_LIMIT",
	}},
	{ErrBusy, []string{
		"BUSY",
		"RATE_LIMIT",
		"TOO_MANY_REQUESTS",
		"RETRY",
	}},
	{ErrUnavailable, []string{
		"UNAVAILABLE",
		"OFFLINE",
		"NOT_BOUND",
		"NOT_READY",
		"CONNECTION CLOSED",
		"DISCONNECTED",
	}},
}

// TransportError wraps a transport error with its normalized code while
// preserving the original for diagnostics.
type TransportError struct {
	Code     error
	Original error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v (transport: %v)", e.Code, e.Original)
}

func (e *TransportError) Unwrap() error {
	return e.Code
}

// NormalizeError maps a transport error to a normalized device error.
// A nil error stays nil; an already normalized error passes through.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	for _, code := range []error{ErrInvalidRange, ErrBusy, ErrUnavailable, ErrInternal} {
		if errors.Is(err, code) {
			return err
		}
	}

	msg := strings.ToUpper(err.Error())
	for _, category := range errorTokens {
		for _, token := range category.tokens {
			if strings.Contains(msg, token) {
				return &TransportError{Code: category.code, Original: err}
			}
		}
	}

	return &TransportError{Code: ErrInternal, Original: err}
}
