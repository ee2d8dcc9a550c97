// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. Codes are lowercase snake_case and stable; clients branch on
// them for programmatic error handling. Generic codes mirror common HTTP
// status semantics; domain-specific codes cover business errors that the
// status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeSelfChat         = "self_chat"
	ErrCodeEmptyMessage     = "empty_message"
	ErrCodeSendFailed       = "send_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
