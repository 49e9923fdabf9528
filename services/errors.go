package services

import "errors"

var (
	// ErrMalformedInput is returned when the repaired document is not an
	// array of objects or a record lacks a required key.
	ErrMalformedInput = errors.New("malformed input")

	// ErrFieldType is returned when a field cannot be coerced to its
	// normalized type.
	ErrFieldType = errors.New("field type mismatch")

	// ErrNoPrice is returned when a price text holds no numeric amount.
	ErrNoPrice = errors.New("no numeric price")
)
