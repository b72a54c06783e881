// File: api/errors_test.go
// Author: momentics <momentics@gmail.com>

package api_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/momentics/hioload-chat/api"
)

func TestError_UnwrapsToSentinel(t *testing.T) {
	err := api.NewError(api.ErrCodeNotFound, "connection").WithContext("fd", 7)
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.NotErrorIs(t, err, api.ErrAlreadyExists)
	assert.Equal(t, "connection (context: map[fd:7])", err.Error())
}

func TestError_Cause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := fmt.Errorf("drain: %w", api.NewError(api.ErrCodeWriteFailed, "write").WithCause(cause))

	assert.ErrorIs(t, err, api.ErrWriteFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write: broken pipe")
	assert.Equal(t, api.ErrCodeWriteFailed, api.CodeOf(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, api.ErrCodeOK, api.CodeOf(nil))
	assert.Equal(t, api.ErrCodeInternal, api.CodeOf(errors.New("plain")))
	assert.Equal(t, api.ErrCodeResourceExhausted, api.CodeOf(api.NewError(api.ErrCodeResourceExhausted, "admit")))
}

func TestWriteOutcomeString(t *testing.T) {
	assert.Equal(t, "drained", api.WriteDrained.String())
	assert.Equal(t, "pending", api.WritePending.String())
	assert.Equal(t, "failed", api.WriteFailed.String())
	assert.Equal(t, "unknown", api.WriteOutcome(42).String())
}
