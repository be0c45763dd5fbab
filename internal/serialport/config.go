package serialport

import (
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
)

const (
	defaultPath        = "/dev/ttyACM0"
	defaultBaud        = 115200
	defaultReadTimeout = 100 * time.Millisecond

	// longest line kept before the read is cut off
	maxLineLength = 512
)

type Config struct {
	Path        string
	Baud        int
	ReadTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Path:        defaultPath,
		Baud:        defaultBaud,
		ReadTimeout: defaultReadTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Path == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "serial port path is empty")
	}
	if c.Baud <= 0 {
		return errFactory.WithData(ErrInvalidConfig, c.Baud)
	}
	if c.ReadTimeout <= 0 {
		return errFactory.WithData(ErrInvalidConfig, c.ReadTimeout)
	}
	return nil
}
