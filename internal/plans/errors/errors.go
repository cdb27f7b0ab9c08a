package errors

import "errors"

var (
	ErrNotFound = errors.New("plan not found")
)
