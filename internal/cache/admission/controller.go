// Package admission tracks bytes held by cached chunks against the configured capacity.
package admission

import "sync/atomic"

// Controller gates new fills. Used memory is only changed from the event loop
// but is kept atomic so telemetry can read it from elsewhere.
type Controller struct {
	capacity int64
	used     atomic.Int64
}

func New(capacity int64) *Controller {
	return &Controller{capacity: capacity}
}

// Full reports whether used memory reached the capacity.
func (c *Controller) Full() bool { return c.used.Load() >= c.capacity }

// Add accounts delta bytes; negative deltas release memory.
func (c *Controller) Add(delta int64) { c.used.Add(delta) }

func (c *Controller) Used() int64     { return c.used.Load() }
func (c *Controller) Capacity() int64 { return c.capacity }
