// Package errors provides structured error handling for the tracker.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionIDEmpty   Code = "SESSION_ID_EMPTY"
	CodeSessionIDInvalid Code = "SESSION_ID_INVALID"

	// Actor errors
	CodeActorInvalidTier  Code = "ACTOR_INVALID_TIER"
	CodeActorInvalidType  Code = "ACTOR_INVALID_TYPE"
	CodeActorInvalidField Code = "ACTOR_INVALID_FIELD"
	CodeActorNameTooLong  Code = "ACTOR_NAME_TOO_LONG"

	// Query errors
	CodeInvalidFilter Code = "INVALID_FILTER"
	CodeInvalidLimit  Code = "INVALID_LIMIT"

	// Storage errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeWriteFailed  Code = "STORAGE_WRITE_FAILED"
	CodeReadFailed   Code = "STORAGE_READ_FAILED"
	CodeUnavailable  Code = "STORAGE_UNAVAILABLE"
	CodeDecodeFailed Code = "REQUEST_DECODE_FAILED"

	// Identity errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeSessionIDEmpty,
		CodeSessionIDInvalid,
		CodeActorInvalidTier,
		CodeActorInvalidType,
		CodeActorInvalidField,
		CodeActorNameTooLong,
		CodeInvalidFilter,
		CodeInvalidLimit,
		CodeDecodeFailed:
		return http.StatusBadRequest

	case CodeNotFound:
		return http.StatusNotFound

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	// Persistence rejected the write; the session keeps its in-memory state.
	case CodeWriteFailed:
		return http.StatusConflict

	case CodeUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
