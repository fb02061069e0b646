package proxy

import (
	"bufio"
	"sync/atomic"

	"github.com/Borislavv/go-ash-httpcache/internal/serve"
)

// connTransport hands chunks from the event loop to the goroutine owning a client
// connection. TryWrite never blocks: a full queue makes the reader retry after the
// connection goroutine drains a chunk and wakes the loop.
type connTransport struct {
	queue  chan []byte
	end    chan serve.Status
	closed atomic.Bool
}

func newConnTransport(size int) *connTransport {
	return &connTransport{
		queue: make(chan []byte, size),
		end:   make(chan serve.Status, 1),
	}
}

func (t *connTransport) TryWrite(p []byte) serve.WriteResult {
	if t.closed.Load() {
		return serve.Closed
	}
	select {
	case t.queue <- p:
		return serve.Accepted
	default:
		return serve.Full
	}
}

// onEnd runs on the loop once the reader let go of its data.
func (t *connTransport) onEnd(status serve.Status) {
	t.end <- status
}

func (t *connTransport) close() {
	t.closed.Store(true)
}

// drain copies queued chunks to w until the reader ends. noWait flushes every chunk,
// otherwise w is flushed whenever the queue runs dry. wake is called after every chunk
// taken from the queue. Write errors close the transport; the reader then releases
// on its next step.
func (t *connTransport) drain(w *bufio.Writer, noWait bool, wake func()) (serve.Status, error) {
	var werr error
	write := func(p []byte) {
		if werr != nil {
			return
		}
		if _, werr = w.Write(p); werr == nil && (noWait || len(t.queue) == 0) {
			werr = w.Flush()
		}
		if werr != nil {
			t.close()
		}
	}

	for {
		select {
		case p := <-t.queue:
			write(p)
			wake()
		case status := <-t.end:
			for {
				select {
				case p := <-t.queue:
					write(p)
				default:
					if werr == nil {
						werr = w.Flush()
					}
					return status, werr
				}
			}
		}
	}
}
