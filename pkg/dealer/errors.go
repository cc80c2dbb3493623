package dealer

import "errors"

// Common errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrOutOfDate      = errors.New("record out of date")
	ErrInvalidQuoteID = errors.New("quote ID is not a valid UUID")
)
