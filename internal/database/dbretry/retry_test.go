package dbretry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/nanikabot/nanika/internal/database/dbretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timeoutError is a network error that timed out.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var errConstraint = errors.New("duplicate key value violates unique constraint")

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"wrapped cancelled", fmt.Errorf("query: %w", context.Canceled), false},
		{"eof", io.EOF, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"network timeout", fmt.Errorf("dial: %w", timeoutError{}), true},
		{"constraint violation", errConstraint, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, dbretry.IsRetryableError(tt.err))
		})
	}
}

func testPolicy() dbretry.Policy {
	return dbretry.Policy{
		MaxElapsedTime:  time.Second,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
	}
}

func TestOperationWithPolicy(t *testing.T) {
	t.Parallel()

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		result, err := dbretry.OperationWithPolicy(t.Context(), testPolicy(), func(context.Context) (int, error) {
			calls++
			if calls < 3 {
				return 0, io.EOF
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := dbretry.OperationWithPolicy(t.Context(), testPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, errConstraint
		})

		require.ErrorIs(t, err, errConstraint)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := dbretry.OperationWithPolicy(t.Context(), testPolicy(), func(context.Context) (int, error) {
			calls++
			return 0, syscall.ECONNRESET
		})

		require.ErrorIs(t, err, syscall.ECONNRESET)
		assert.Equal(t, 4, calls)
	})

	t.Run("cancelled context keeps the last error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		policy := testPolicy()
		policy.InitialInterval = time.Minute
		policy.MaxInterval = time.Minute

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := dbretry.OperationWithPolicy(ctx, policy, func(context.Context) (int, error) {
			return 0, io.EOF
		})

		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, err, io.EOF)
	})
}

func TestNoResult(t *testing.T) {
	t.Parallel()

	calls := 0
	err := dbretry.NoResult(t.Context(), func(context.Context) error {
		calls++
		return errConstraint
	})

	require.ErrorIs(t, err, errConstraint)
	assert.Equal(t, 1, calls)
}
