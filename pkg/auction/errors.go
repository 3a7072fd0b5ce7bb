package auction

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure kinds of a monitoring cycle.
var (
	// ErrAuthentication is returned when credentials could not be obtained
	// or were incomplete.
	ErrAuthentication = errors.New("CAR_ON_SALE_AUTHENTICATION_ERROR")

	// ErrAuctionFetch is returned when a page fetch failed after
	// authentication succeeded.
	ErrAuctionFetch = errors.New("CAR_ON_SALE_FETCH_AUCTION_FAILED")

	// ErrPaginationInconsistency is returned when the pages returned by the
	// server cannot add up to the total it announced.
	ErrPaginationInconsistency = errors.New("CAR_ON_SALE_PAGINATION_INCONSISTENT")

	// ErrNotAuthenticated is returned by FetchPage before authentication.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Error is a domain error carrying the marketplace status and message that
// caused it. It matches its Kind with errors.Is and never wraps the
// underlying transport error.
type Error struct {
	Kind       error
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return e.Kind.Error()
}

// Is reports whether target is the error's Kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}
