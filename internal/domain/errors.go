package domain

import "errors"

var (
	// ErrDuplicateKey is returned by a store when an insert reuses an existing id.
	ErrDuplicateKey = errors.New("duplicate item id")
	// ErrItemNotFound is returned by a store when no record has the requested id.
	ErrItemNotFound = errors.New("item not found")
	// ErrInsufficientData is returned when a series is too short to fit a trend.
	ErrInsufficientData = errors.New("insufficient data: at least 2 historical periods are required")
	// ErrInvalidItem wraps schema validation failures.
	ErrInvalidItem = errors.New("invalid inventory item")
	// ErrUnknownField is returned when a patch names a field outside the schema.
	ErrUnknownField = errors.New("unknown inventory field")
)

// ErrInvalidSeries is returned when a series holds non-finite quantities or
// periods that are missing or out of order.
var ErrInvalidSeries = errors.New("invalid series")
