package chime

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/chime/internal/core/notify"
	"github.com/colonyops/chime/internal/core/notify/notifytest"
)

// newTestRegistry builds a registry without the background default
// registration and without the settle delay, so tests stay fast and
// deterministic.
func newTestRegistry(center notify.Center) *CategoryRegistry {
	return &CategoryRegistry{
		center: center,
		log:    zerolog.Nop(),
	}
}

func TestCategoryRegistry_EnsureCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty caption maps to no-action category", func(t *testing.T) {
		center := notifytest.New()
		r := newTestRegistry(center)

		id, err := r.EnsureCategory(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, notify.CategoryNoAction, id)

		cats, err := center.Categories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Empty(t, cats[0].Actions)
	})

	t.Run("caption derives identifier with destructive foreground stop action", func(t *testing.T) {
		center := notifytest.New()
		r := newTestRegistry(center)

		id, err := r.EnsureCategory(ctx, "Stop")
		require.NoError(t, err)
		assert.Equal(t, "ALARM_CATEGORY_WITH_ACTION_Stop", id)

		cats, err := center.Categories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		require.Len(t, cats[0].Actions, 1)

		action := cats[0].Actions[0]
		assert.Equal(t, notify.StopActionID, action.Identifier)
		assert.Equal(t, "Stop", action.Title)
		assert.True(t, action.Foreground)
		assert.True(t, action.Destructive)
	})

	t.Run("idempotent", func(t *testing.T) {
		center := notifytest.New()
		r := newTestRegistry(center)

		for i := 0; i < 3; i++ {
			id, err := r.EnsureCategory(ctx, "Stop")
			require.NoError(t, err)
			assert.Equal(t, "ALARM_CATEGORY_WITH_ACTION_Stop", id)
		}

		assert.Equal(t, 1, center.SetCategoryCalls())
	})

	t.Run("preserves existing categories", func(t *testing.T) {
		center := notifytest.New()
		require.NoError(t, center.SetCategories(ctx, []notify.Category{
			{Identifier: "com.example.host-category"},
		}))

		r := newTestRegistry(center)
		_, err := r.EnsureCategory(ctx, "Arrêter")
		require.NoError(t, err)
		_, err = r.EnsureCategory(ctx, "")
		require.NoError(t, err)

		cats, err := center.Categories(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(cats))
		for _, c := range cats {
			ids = append(ids, c.Identifier)
		}
		assert.ElementsMatch(t, []string{
			"com.example.host-category",
			"ALARM_CATEGORY_WITH_ACTION_Arrêter",
			notify.CategoryNoAction,
		}, ids)
	})
}

func TestCategoryRegistry_BackgroundDefault(t *testing.T) {
	center := notifytest.New()
	NewCategoryRegistry(center, zerolog.Nop())

	// The constructor registers the no-action category in the
	// background, including the settle delay.
	require.Eventually(t, func() bool {
		cats, err := center.Categories(context.Background())
		return err == nil && len(cats) == 1 && cats[0].Identifier == notify.CategoryNoAction
	}, 2*time.Second, 10*time.Millisecond)
}
