package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_WrappingAndCode(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(ErrConnection, "dial failed").WithCause(cause).WithRetryable(true).WithProvider("openai")

	assert.Equal(t, "[CONNECTION] dial failed: connection reset", err.Error())
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrConnection, GetErrorCode(err))
	assert.ErrorIs(t, err, cause)
}

func TestIsRetryable_ForeignError(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))
}
