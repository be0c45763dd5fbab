package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/roboteqbms/internal/errors"
)

const (
	pidPrefix = "roboteqbms-"
	pidSuffix = ".pid"
)

// dir is replaced in tests
var dir = os.TempDir

// Path returns the PID file guarding the given serial port.
func Path(port string) string {
	return filepath.Join(dir(), pidPrefix+filepath.Base(port)+pidSuffix)
}

// Write records the current process as owner of port. It fails with
// ErrAlreadyRunning while the recorded owner is still alive.
func Write(port string) error {
	errFactory := errors.New()
	path := Path(port)

	if bytes, err := os.ReadFile(path); err == nil {
		owner, err := strconv.Atoi(strings.TrimSpace(string(bytes)))
		if err == nil && owner != os.Getpid() && alive(owner) {
			return errFactory.WithData(errors.ErrAlreadyRunning, struct {
				Port string
				PID  int
			}{
				Port: port,
				PID:  owner,
			})
		}
	} else if !os.IsNotExist(err) {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file for port.
func Remove(port string) error {
	path := Path(port)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
