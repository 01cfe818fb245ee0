package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/remedy/internal/engine"
)

func TestEngineErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{engine.ErrValidation, http.StatusBadRequest},
		{engine.ErrOutOfRange, http.StatusBadRequest},
		{engine.ErrNoPlan, http.StatusNotFound},
		{engine.ErrReentrancy, http.StatusConflict},
		{engine.ErrStepSucceeded, http.StatusConflict},
		{engine.ErrWorkflowCompleted, http.StatusConflict},
		{engine.ErrEngineShutdown, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("%w: detail", tt.err)
			assert.Equal(t, tt.status, engineErrorStatus(wrapped))
		})
	}
}
