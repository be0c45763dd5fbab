package serialport

import (
	"io"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"go.bug.st/serial"
)

// Port is the subset of serial.Port the transport needs.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// Transport is a line-oriented request/response channel over one serial port.
// It is not safe for concurrent use.
type Transport struct {
	port   Port
	path   string
	log    logger.Logger
	closed bool
}

// openPort is replaced in tests
var openPort = func(path string, mode *serial.Mode) (Port, error) {
	return serial.Open(path, mode)
}

// Open opens the serial device at 8N1 without flow control and applies the
// read timeout.
func Open(cfg Config, log logger.Logger) (*Transport, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := openPort(cfg.Path, mode)
	if err != nil {
		return nil, errFactory.WithData(ErrOpenFailed, struct {
			Path  string
			Error string
		}{
			Path:  cfg.Path,
			Error: err.Error(),
		})
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, errFactory.Wrap(ErrOpenFailed, err)
	}

	log.Info().
		Str("port", cfg.Path).
		Int("baud", cfg.Baud).
		Dur("read_timeout", cfg.ReadTimeout).
		Msg("Serial port opened")

	return New(port, cfg.Path, log), nil
}

// New wraps an already opened port.
func New(port Port, path string, log logger.Logger) *Transport {
	return &Transport{
		port: port,
		path: path,
		log:  log,
	}
}

// Path returns the device path the transport was opened on.
func (t *Transport) Path() string {
	return t.path
}

// Write sends command as-is and returns the number of bytes written.
func (t *Transport) Write(command string) (int, error) {
	errFactory := errors.New()

	if t.closed {
		return 0, errFactory.New(ErrPortClosed)
	}

	n, err := t.port.Write([]byte(command))
	if err != nil {
		return n, errFactory.Wrap(ErrWriteFailed, err)
	}

	return n, nil
}

// ReadLine reads one response line. Reading stops at a newline, at the first
// read that times out with no data, or after maxLineLength bytes. NUL bytes are
// dropped. Whatever was collected before a timeout is returned as the line.
// The second result is false when nothing was read or the port failed.
func (t *Transport) ReadLine() (string, bool) {
	if t.closed {
		return "", false
	}

	var (
		line []byte
		buf  = make([]byte, 1)
	)

	for read := 0; read < maxLineLength; read++ {
		n, err := t.port.Read(buf)
		if err != nil {
			t.log.Debug().Err(err).Str("port", t.path).Msg("Serial read failed")
			return "", false
		}
		if n == 0 {
			break
		}
		if buf[0] == 0 {
			continue
		}

		line = append(line, buf[0])
		if buf[0] == '\n' {
			break
		}
	}

	if len(line) == 0 {
		return "", false
	}

	return string(line), true
}

// Close releases the port. Closing twice is a no-op.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	if err := t.port.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	t.log.Debug().Str("port", t.path).Msg("Serial port closed")

	return nil
}
