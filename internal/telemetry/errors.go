package telemetry

import "codeberg.org/mutker/roboteqbms/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidAddr   = errors.ErrorCode("telemetry_invalid_redis_addr")

	// Connection Errors
	ErrConnectFailed = errors.ErrorCode("telemetry_redis_connect_failed")

	// Publish Errors
	ErrEncodeFailed  = errors.ErrorCode("telemetry_encode_failed")
	ErrPublishFailed = errors.ErrPublish
	ErrInvalidResult = errors.ErrorCode("telemetry_invalid_result")
)
