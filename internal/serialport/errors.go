package serialport

import "codeberg.org/mutker/roboteqbms/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrOpenFailed    = errors.ErrOpenPort
	ErrCloseFailed   = errors.ErrClosePort
	ErrWriteFailed   = errors.ErrorCode("serial_write_failed")
	ErrPortClosed    = errors.ErrorCode("serial_port_closed")
)
