package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationErrorFormatting(t *testing.T) {
	tests := []struct {
		err  *OperationError
		want string
	}{
		{NewConfigurationError("", "bad ref"), "[configuration] bad ref"},
		{NewValidationError("totals", "no steps"), "[validation] totals: no steps"},
		{NewInputMissingError("totals", "Clinical", "/x"), "[input_missing] totals (Clinical): input path not found: /x"},
		{NewExecutionError("totals", "", errors.New("boom")), "[execution] totals: step execution failed: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}

	var nilErr *OperationError
	assert.Equal(t, "unknown operation error", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}

func TestErrorUnwrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("wrapped: %w", NewExecutionError("s", "d", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
	assert.Equal(t, ErrorTypeExecution, GetErrorType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(nil))

	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "d", opErr.Domain)
}

func TestCancellationError(t *testing.T) {
	err := NewCancellationError("step", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.ErrorIs(t, NewCancellationError("", nil), ErrCancelled)
	assert.ErrorIs(t, NewCancellationError("", ErrCancelled), ErrCancelled)
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	assert.NoError(t, list.Err())
	assert.Equal(t, "no errors", list.Error())

	list.Add(nil)
	list.Add(NewValidationError("a", "first"))
	assert.Equal(t, "[validation] a: first", list.Error())

	list.Add(NewConfigurationError("b", "second"))
	assert.Contains(t, list.Error(), "2 errors occurred")
	assert.Contains(t, list.Error(), "second")
	assert.Len(t, list.GetByStep("b"), 1)
	assert.Error(t, list.Err())
	assert.True(t, IsConfigurationError(list.Err()) || GetErrorType(list.Err()) == ErrorTypeValidation)
}
