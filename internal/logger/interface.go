package logger

import "codeberg.org/mutker/roboteqbms/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}

type componentLogger struct {
	component string
}

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return componentLogger{}
}

// With returns a Logger that tags every event with a component name.
func With(component string) Logger {
	return componentLogger{component: component}
}

func (c componentLogger) tag(e *LogEvent) *LogEvent {
	if c.component != "" {
		e.Event = e.Str("component", c.component)
	}
	return e
}

func (c componentLogger) Debug() *LogEvent { return c.tag(Debug()) }
func (c componentLogger) Info() *LogEvent  { return c.tag(Info()) }
func (c componentLogger) Warn() *LogEvent  { return c.tag(Warn()) }
func (c componentLogger) Error() *LogEvent { return c.tag(Error()) }

func (c componentLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return c.tag(ErrorWithCode(err))
}
