package base

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, NoError, CodeOf(nil))
	require.Equal(t, InvalidOperation, CodeOf(InvalidOperationf("bad call")))
	require.Equal(t, Unsupported, CodeOf(Unsupportedf("not here")))
	require.Equal(t, OutOfMemory, CodeOf(Errorf(OutOfMemory, "alloc of %d bytes", 1<<40)))

	// Uncoded errors classify as unknown.
	require.Equal(t, UnknownError, CodeOf(errors.New("plain failure")))
	require.Equal(t, UnknownError, CodeOf(io.EOF))
}

func TestCodeOfWrapped(t *testing.T) {
	// The code must survive further wrapping.
	err := WrapError(InvalidArgument, io.ErrUnexpectedEOF, "loading module")
	require.Equal(t, InvalidArgument, CodeOf(err))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	wrapped := errors.WithMessage(err, "outer layer")
	require.Equal(t, InvalidArgument, CodeOf(wrapped))

	require.NoError(t, WrapError(InvalidArgument, nil, "no-op"))
}

func TestErrorCodeString(t *testing.T) {
	require.Equal(t, "no error", NoError.String())
	require.Equal(t, "invalid operation", InvalidOperation.String())
	require.Equal(t, "device lost", DeviceLost.String())
	require.Equal(t, "invalid error code", ErrorCode(127).String())
}
