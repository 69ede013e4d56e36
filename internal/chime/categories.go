package chime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/chime/internal/core/notify"
)

// categorySettleDelay is how long to wait after inserting a new category
// before referencing it from a notification. Without this pause the host
// schedules the notification before the category's actions are visible
// and the buttons never appear. Empirically required; do not remove.
const categorySettleDelay = 100 * time.Millisecond

// CategoryRegistry performs idempotent registration of notification
// categories with the host center. The host's category set is treated as
// append-only: existing categories are always preserved via
// read-modify-write union.
type CategoryRegistry struct {
	center notify.Center
	log    zerolog.Logger

	// mu serializes read-modify-write cycles against the host category
	// set, including the background registration of the default
	// category started by the constructor.
	mu     sync.Mutex
	settle time.Duration
}

// NewCategoryRegistry creates a registry and registers the no-action
// category in the background. Callers do not need to wait for that
// registration; EnsureCategory performs its own idempotent insert.
func NewCategoryRegistry(center notify.Center, logger zerolog.Logger) *CategoryRegistry {
	r := &CategoryRegistry{
		center: center,
		log:    logger,
		settle: categorySettleDelay,
	}

	go func() {
		if _, err := r.EnsureCategory(context.Background(), ""); err != nil {
			r.log.Error().Err(err).Msg("register default notification category")
		}
	}()

	return r
}

// EnsureCategory registers the category for the given stop button
// caption if it is not already present and returns its identifier. An
// empty caption maps to the no-action sentinel category.
func (r *CategoryRegistry) EnsureCategory(ctx context.Context, caption string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := notify.CategoryNoAction
	var actions []notify.Action
	if caption != "" {
		id = notify.CategoryActionPrefix + caption
		actions = []notify.Action{{
			Identifier:  notify.StopActionID,
			Title:       caption,
			Foreground:  true,
			Destructive: true,
		}}
	}

	existing, err := r.center.Categories(ctx)
	if err != nil {
		return "", fmt.Errorf("read categories: %w", err)
	}

	for _, c := range existing {
		if c.Identifier == id {
			return id, nil
		}
	}

	updated := append(existing, notify.Category{Identifier: id, Actions: actions})
	if err := r.center.SetCategories(ctx, updated); err != nil {
		return "", fmt.Errorf("write categories: %w", err)
	}

	// Give the host time to pick up the new category before anything
	// references it.
	time.Sleep(r.settle)

	r.log.Debug().
		Str("category", id).
		Int("total", len(updated)).
		Msg("registered notification category")

	return id, nil
}
