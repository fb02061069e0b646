package loop

import "sync/atomic"

type counters struct {
	tasks    atomic.Int64
	steps    atomic.Int64
	streams  atomic.Int64
	rejected atomic.Int64
	done     atomic.Int64
	aborted  atomic.Int64
	closed   atomic.Int64
	sent     atomic.Int64
}

// Metrics counts loop activity since start. Active and Queued are gauges.
type Metrics struct {
	Tasks    int64
	Steps    int64
	Streams  int64
	Rejected int64
	Done     int64
	Aborted  int64
	Closed   int64
	Sent     int64 // bytes handed to transports
	Active   int64
	Queued   int64
}

func (c *counters) snapshot() Metrics {
	return Metrics{
		Tasks:    c.tasks.Load(),
		Steps:    c.steps.Load(),
		Streams:  c.streams.Load(),
		Rejected: c.rejected.Load(),
		Done:     c.done.Load(),
		Aborted:  c.aborted.Load(),
		Closed:   c.closed.Load(),
		Sent:     c.sent.Load(),
	}
}
