// Package services defines the business logic for feedback records.
// This file centralizes the service-level error kinds so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer; any
// error that does not wrap one of these kinds is treated as internal.
package services

import "errors"

var (
	// ErrNotFound indicates that the requested feedback record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates a malformed or otherwise invalid argument, such
	// as a missing content field or a negative page number.
	ErrBadRequest = errors.New("bad request")
)
