package telemetry

import (
	"strings"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
)

const (
	defaultAddr   = "localhost:6379"
	defaultPrefix = "bms"

	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

type Config struct {
	Addr     string
	Password string
	Prefix   string
}

func DefaultConfig() Config {
	return Config{
		Addr:   defaultAddr,
		Prefix: defaultPrefix,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if strings.TrimSpace(c.Addr) == "" {
		return errFactory.New(ErrInvalidAddr)
	}
	if c.Prefix == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "redis prefix is empty")
	}
	return nil
}
