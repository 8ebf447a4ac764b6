package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidDateRange rejects projection windows whose end is not after their start
	ErrInvalidDateRange = errors.New("end date must be after start date")

	// ErrUnsupported signals an operation that is not available for the given variant
	ErrUnsupported = errors.New("unsupported operation")

	// ErrIndexDataUnavailable is fatal for pegged loans: no usable index observations remain
	ErrIndexDataUnavailable = errors.New("index data unavailable")

	// ErrUnknownField rejects scenario patches naming a field the target kind does not have
	ErrUnknownField = errors.New("unknown field")
)
