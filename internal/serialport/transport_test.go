package serialport

import (
	"bytes"
	goerrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

// fakePort serves rx byte by byte and reports a timeout (0, nil) once rx is
// drained.
type fakePort struct {
	rx       []byte
	tx       bytes.Buffer
	readErr  error
	writeErr error
	timeout  time.Duration
	closed   bool
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.rx) == 0 {
		return 0, nil
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.tx.Write(b)
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

func newTransport(rx string) (*Transport, *fakePort) {
	port := &fakePort{rx: []byte(rx)}
	return New(port, "/dev/fake", logger.Default()), port
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name   string
		rx     string
		want   string
		wantOK bool
	}{
		{"complete line", "BSC=87\r\n", "BSC=87\r\n", true},
		{"partial line before timeout", "A=-250", "A=-250", true},
		{"nul bytes dropped", "\x00FS=\x001\r\n", "FS=1\r\n", true},
		{"nothing read", "", "", false},
		{"only nul bytes", "\x00\x00", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _ := newTransport(tt.rx)

			got, ok := tr.ReadLine()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLineStopsAtNewline(t *testing.T) {
	tr, _ := newTransport("V=2400\r\nT=25:26\r\n")

	first, ok := tr.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "V=2400\r\n", first)

	second, ok := tr.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "T=25:26\r\n", second)

	_, ok = tr.ReadLine()
	assert.False(t, ok)
}

func TestReadLineBounded(t *testing.T) {
	tr, _ := newTransport(string(bytes.Repeat([]byte("x"), maxLineLength*2)))

	line, ok := tr.ReadLine()
	require.True(t, ok)
	assert.Len(t, line, maxLineLength)
}

func TestReadLinePortError(t *testing.T) {
	tr, port := newTransport("BSC=1\n")
	port.readErr = goerrors.New("device disconnected")

	line, ok := tr.ReadLine()
	assert.False(t, ok)
	assert.Empty(t, line)
}

func TestWrite(t *testing.T) {
	tr, port := newTransport("")

	n, err := tr.Write("?BSC\r")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "?BSC\r", port.tx.String())
}

func TestWriteError(t *testing.T) {
	tr, port := newTransport("")
	port.writeErr = goerrors.New("i/o error")

	_, err := tr.Write("?A 1\r")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrWriteFailed))
}

func TestClose(t *testing.T) {
	tr, port := newTransport("BSC=1\n")

	require.NoError(t, tr.Close())
	assert.True(t, port.closed)
	require.NoError(t, tr.Close(), "second close is a no-op")

	_, ok := tr.ReadLine()
	assert.False(t, ok)

	_, err := tr.Write("?BSC\r")
	assert.True(t, errors.HasCode(err, ErrPortClosed))
}

func TestOpen(t *testing.T) {
	port := &fakePort{}
	var gotPath string
	var gotMode *serial.Mode

	orig := openPort
	openPort = func(path string, mode *serial.Mode) (Port, error) {
		gotPath, gotMode = path, mode
		return port, nil
	}
	defer func() { openPort = orig }()

	cfg := DefaultConfig()
	tr, err := Open(cfg, logger.Default())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", gotPath)
	assert.Equal(t, "/dev/ttyACM0", tr.Path())
	assert.Equal(t, 115200, gotMode.BaudRate)
	assert.Equal(t, 8, gotMode.DataBits)
	assert.Equal(t, serial.NoParity, gotMode.Parity)
	assert.Equal(t, serial.OneStopBit, gotMode.StopBits)
	assert.Equal(t, 100*time.Millisecond, port.timeout)
}

func TestOpenFailure(t *testing.T) {
	orig := openPort
	openPort = func(string, *serial.Mode) (Port, error) {
		return nil, goerrors.New("no such file or directory")
	}
	defer func() { openPort = orig }()

	_, err := Open(DefaultConfig(), logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrOpenFailed))
	assert.Contains(t, err.Error(), "/dev/ttyACM0")
}

func TestOpenInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = ""

	_, err := Open(cfg, logger.Default())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
}
