package lifecycle

import "codeberg.org/mutker/roboteqbms/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidInterval
	ErrOpenFailed    = errors.ErrOpenPort
	ErrInvalidState  = errors.ErrInvalidState
)
