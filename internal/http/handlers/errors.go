// Package handlers defines the HTTP error categories used across all API
// endpoints.
//
// Every failure response carries one of these short category strings in its
// `error` field next to the numeric status. Domain failures map onto the
// first three through classify(); the rest are produced by the router for
// unmatched routes and methods.
//
// Example response:
//
//	{
//	  "timestamp": "2026-01-02T15:04:05Z",
//	  "status": 404,
//	  "error": "Not Found",
//	  "message": "not found: feedback 42",
//	  "path": "/api/feedback/42"
//	}
package handlers

const (
	CategoryBadRequest       = "Bad Request"
	CategoryNotFound         = "Not Found"
	CategoryInternal         = "Internal Server Error"
	CategoryMethodNotAllowed = "Method Not Allowed"
)
