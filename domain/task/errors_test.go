package task

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "unrelated", err: assert.AnError, want: nil},
		{name: "remote not found", err: remoteText("create-task service call failed: task not found"), want: ErrNotFound},
		{name: "remote forbidden", err: remoteText("not authorized to access this task"), want: ErrForbidden},
		{name: "remote validation", err: remoteText("validation failed: title is required"), want: ErrValidation},
		{name: "remote store", err: remoteText("task store unavailable"), want: ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restored := RestoreError(tt.err)
			assert.EqualError(t, restored, tt.err.Error())
			if tt.want == nil {
				assert.Equal(t, tt.err, restored)
				return
			}
			assert.ErrorIs(t, restored, tt.want)
		})
	}

	assert.NoError(t, RestoreError(nil))
}

func TestRestoreError_KeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", ErrNotFound)
	assert.Same(t, wrapped, RestoreError(wrapped))
}

type remoteText string

func (e remoteText) Error() string { return string(e) }
