package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	t.Run("SucceedsAfterFailures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 3, time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), 2, time.Millisecond, func(context.Context) error {
			calls++
			return errors.New("down")
		})
		assert.EqualError(t, err, "down")
		assert.Equal(t, 2, calls)
	})

	t.Run("StopsWhenContextEnds", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, 5, time.Hour, func(context.Context) error {
			calls++
			cancel()
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("AtLeastOnce", func(t *testing.T) {
		calls := 0
		_ = Retry(context.Background(), 0, 0, func(context.Context) error {
			calls++
			return nil
		})
		assert.Equal(t, 1, calls)
	})
}
