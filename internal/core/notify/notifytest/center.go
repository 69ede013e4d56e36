// Package notifytest provides an in-memory notify.Center for tests. It
// mimics the host service's stores: requests stay pending until moved to
// delivered, categories are a flat set, and Add replaces entries with
// the same identifier.
package notifytest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/chime/internal/core/notify"
)

// Center is an in-memory notify.Center. The zero value is not usable;
// construct with New. All methods are safe for concurrent use.
type Center struct {
	mu         sync.Mutex
	auth       notify.AuthorizationStatus
	categories []notify.Category
	pending    []notify.Request
	delivered  []notify.Notification

	// FailAdd, when set, is consulted on every Add; a non-nil return
	// rejects the request. Used to exercise submission failures.
	FailAdd func(req notify.Request) error

	setCategoryCalls int
}

var _ notify.Center = (*Center)(nil)

// New creates an authorized, empty center.
func New() *Center {
	return &Center{auth: notify.AuthorizationAuthorized}
}

// SetAuthorization changes the authorization status reported to callers.
func (c *Center) SetAuthorization(status notify.AuthorizationStatus) {
	c.mu.Lock()
	c.auth = status
	c.mu.Unlock()
}

func (c *Center) AuthorizationStatus(context.Context) (notify.AuthorizationStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth, nil
}

func (c *Center) Categories(context.Context) ([]notify.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.categories), nil
}

func (c *Center) SetCategories(_ context.Context, categories []notify.Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = slices.Clone(categories)
	c.setCategoryCalls++
	return nil
}

func (c *Center) Add(_ context.Context, req notify.Request) error {
	if c.FailAdd != nil {
		if err := c.FailAdd(req); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = slices.DeleteFunc(c.pending, func(r notify.Request) bool {
		return r.Identifier == req.Identifier
	})
	c.pending = append(c.pending, req)
	return nil
}

func (c *Center) Pending(context.Context) ([]notify.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending), nil
}

func (c *Center) Delivered(context.Context) ([]notify.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.delivered), nil
}

func (c *Center) RemovePending(_ context.Context, identifiers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = slices.DeleteFunc(c.pending, func(r notify.Request) bool {
		return slices.Contains(identifiers, r.Identifier)
	})
	return nil
}

func (c *Center) RemoveDelivered(_ context.Context, identifiers []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = slices.DeleteFunc(c.delivered, func(n notify.Notification) bool {
		return slices.Contains(identifiers, n.Request.Identifier)
	})
	return nil
}

// Deliver moves a pending request into the delivered store, as the host
// does when a trigger fires. Returns false when no such request is
// pending.
func (c *Center) Deliver(identifier string, at time.Time) (notify.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, req := range c.pending {
		if req.Identifier == identifier {
			c.pending = slices.Delete(c.pending, i, i+1)
			n := notify.Notification{Request: req, DeliveredAt: at}
			c.delivered = append(c.delivered, n)
			return n, true
		}
	}
	return notify.Notification{}, false
}

// Seed inserts a delivered notification directly, bypassing the pending
// store.
func (c *Center) Seed(n notify.Notification) {
	c.mu.Lock()
	c.delivered = append(c.delivered, n)
	c.mu.Unlock()
}

// PendingIdentifiers returns the identifiers of all pending requests in
// sorted order.
func (c *Center) PendingIdentifiers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.pending))
	for _, req := range c.pending {
		ids = append(ids, req.Identifier)
	}
	slices.Sort(ids)
	return ids
}

// PendingRequest returns the pending request with the given identifier.
func (c *Center) PendingRequest(identifier string) (notify.Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, req := range c.pending {
		if req.Identifier == identifier {
			return req, true
		}
	}
	return notify.Request{}, false
}

// SetCategoryCalls returns how many times SetCategories was invoked.
func (c *Center) SetCategoryCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCategoryCalls
}
