package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not_found")

	ErrAccountNotFound   = errors.New("account_not_found")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidArgument   = errors.New("invalid_argument")
	// ErrStoreUnavailable wraps any failure of the underlying store or driver.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// Code returns the stable wire code for err, or "internal" when err carries
// none of the known kinds.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "internal"
	}
}
