package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	orig := dir
	dir = func() string { return tmp }
	t.Cleanup(func() { dir = orig })
	return tmp
}

func TestPath(t *testing.T) {
	tmp := useTempDir(t)
	assert.Equal(t, filepath.Join(tmp, "roboteqbms-ttyACM0.pid"), Path("/dev/ttyACM0"))
}

func TestWriteAndRemove(t *testing.T) {
	useTempDir(t)
	port := "/dev/ttyACM0"

	require.NoError(t, Write(port))

	content, err := os.ReadFile(Path(port))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))

	require.NoError(t, Write(port), "rewriting our own pid is allowed")

	require.NoError(t, Remove(port))
	_, err = os.Stat(Path(port))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, Remove(port), "removing a missing file is fine")
}

func TestWriteRefusesLiveOwner(t *testing.T) {
	useTempDir(t)
	port := "/dev/ttyUSB1"

	// the parent of the test binary is alive for the duration of the test
	parent := os.Getppid()
	require.NoError(t, os.WriteFile(Path(port), []byte(strconv.Itoa(parent)), 0o600))

	err := Write(port)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	useTempDir(t)
	port := "/dev/ttyUSB2"

	require.NoError(t, os.WriteFile(Path(port), []byte("not-a-pid"), 0o600))
	require.NoError(t, Write(port))

	content, err := os.ReadFile(Path(port))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))
}

func TestPortsAreIndependent(t *testing.T) {
	useTempDir(t)

	require.NoError(t, Write("/dev/ttyACM0"))
	require.NoError(t, Write("/dev/ttyACM1"))
	assert.NotEqual(t, Path("/dev/ttyACM0"), Path("/dev/ttyACM1"))
}
