package alarm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("tracks ringing state", func(t *testing.T) {
		r := NewRegistry()
		assert.False(t, r.IsRinging(7))

		r.SetRinging(7)
		assert.True(t, r.IsRinging(7))
		assert.False(t, r.IsRinging(8))

		r.ClearRinging(7)
		assert.False(t, r.IsRinging(7))
	})

	t.Run("stop clears ringing and forwards", func(t *testing.T) {
		r := NewRegistry()
		r.SetRinging(7)

		var stopped []int64
		r.OnStop = func(_ context.Context, id int64) error {
			stopped = append(stopped, id)
			return nil
		}

		require.NoError(t, r.StopAlarm(context.Background(), 7))
		assert.False(t, r.IsRinging(7))
		assert.Equal(t, []int64{7}, stopped)
	})

	t.Run("stop surfaces engine errors", func(t *testing.T) {
		r := NewRegistry()
		boom := errors.New("audio session busy")
		r.OnStop = func(context.Context, int64) error { return boom }

		assert.ErrorIs(t, r.StopAlarm(context.Background(), 7), boom)
	})
}

func TestUnavailable(t *testing.T) {
	e := Unavailable{}
	assert.False(t, e.IsRinging(7))
	assert.ErrorIs(t, e.StopAlarm(context.Background(), 7), ErrUnavailable)
}
