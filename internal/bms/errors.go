package bms

import "codeberg.org/mutker/roboteqbms/internal/errors"

const (
	// Decode Errors
	ErrEmptyResponse = errors.ErrorCode("bms_empty_response")
	ErrTagNotFound   = errors.ErrorCode("bms_tag_not_found")
	ErrInvalidNumber = errors.ErrorCode("bms_invalid_number")
	ErrShortPayload  = errors.ErrorCode("bms_short_payload")
	ErrUnknownField  = errors.ErrorCode("bms_unknown_field")

	// Transport Errors
	ErrNoTransport   = errors.ErrorCode("bms_no_transport")
	ErrCommandFailed = errors.ErrorCode("bms_command_failed")
)
