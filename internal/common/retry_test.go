package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	errFlaky := errors.New("flaky")
	fast := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	tests := []struct {
		wantErr   error
		name      string
		failures  int
		permanent bool
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, wantCalls: 1},
		{name: "recovers after failures", failures: 2, wantCalls: 3},
		{name: "gives up", failures: 5, wantCalls: 3, wantErr: ErrMaxRetries},
		{name: "permanent error stops", failures: 5, permanent: true, wantCalls: 1, wantErr: errFlaky},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					if tt.permanent {
						return &RetryableError{Err: errFlaky, Retryable: false}
					}
					return errFlaky
				}
				return nil
			}, fast)

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error { return errors.New("down") },
		RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
