package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	ErrFeatureNotFound   = errors.New("feature not found in local dataset")
	ErrUnsupportedMethod = errors.New("unsupported aggregation method")
	ErrNoValidReplies    = errors.New("no valid replies received from nodes")
	ErrInsufficientData  = errors.New("insufficient data for aggregation")
)
