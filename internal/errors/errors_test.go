package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	f := errors.New()

	assert.Equal(t, "Failed to open serial port", f.New(errors.ErrOpenPort).Error())
	assert.Equal(t, "custom", f.WithMessage(errors.ErrOpenPort, "custom").Error())
	assert.Equal(t, "Invalid argument provided: baud", f.WithData(errors.ErrInvalidArgument, "baud").Error())
	assert.Equal(t, "unknown_code", f.New(errors.ErrorCode("unknown_code")).Error())
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("device gone")
	err := errors.New().Wrap(errors.ErrOpenPort, cause)

	assert.Equal(t, "Failed to open serial port: device gone", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, errors.ErrOpenPort, err.Code())
}

func TestHasCode(t *testing.T) {
	f := errors.New()
	inner := f.New(errors.ErrTimeout)
	outer := f.Wrap(errors.ErrOperationFailed, fmt.Errorf("cycle: %w", inner))

	assert.True(t, errors.HasCode(outer, errors.ErrOperationFailed))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrOpenPort))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrTimeout))
	assert.False(t, errors.HasCode(nil, errors.ErrTimeout))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, errors.ErrPublish, errors.CodeOf(fmt.Errorf("x: %w", errors.New().New(errors.ErrPublish))))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(stderrors.New("plain")))
}

type timeoutError struct {
	port string
	err  error
}

func (e *timeoutError) Error() string          { return "no reply on " + e.port }
func (e *timeoutError) Code() errors.ErrorCode { return errors.ErrTimeout }
func (e *timeoutError) Unwrap() error          { return e.err }

func TestCodedOutsideFactory(t *testing.T) {
	cause := errors.New().New(errors.ErrOpenPort)
	custom := &timeoutError{port: "/dev/ttyACM0", err: cause}
	err := errors.New().Wrap(errors.ErrOperationFailed, fmt.Errorf("cycle: %w", custom))

	var _ errors.Coded = custom
	assert.True(t, errors.HasCode(err, errors.ErrOperationFailed))
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.True(t, errors.HasCode(err, errors.ErrOpenPort))
	assert.Equal(t, errors.ErrTimeout, errors.CodeOf(fmt.Errorf("x: %w", custom)))
}

func TestFactoryCopies(t *testing.T) {
	base := errors.New().WithData(errors.ErrInvalidArgument, "baud")
	renamed := base.WithMessage("bad baud")
	withData := base.WithData("port")

	assert.Equal(t, "Invalid argument provided: baud", base.Error())
	assert.Equal(t, "bad baud: baud", renamed.Error())
	assert.Equal(t, "port", withData.GetData())
	assert.Equal(t, "baud", base.GetData())
	assert.Equal(t, errors.ErrInvalidArgument, renamed.Code())
}
