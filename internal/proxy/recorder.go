package proxy

import (
	"bytes"
	"fmt"
	"net/http"
)

// hopHeaders describe the upstream connection and are not replayed from cache.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// recorder tees a response to the client and to a fill. The cached form is the raw
// HTTP/1.1 response: status line, headers with "Connection: close", blank line, body.
// Only 200 responses are kept.
type recorder struct {
	rw          http.ResponseWriter
	sink        func(p []byte) error
	status      int
	wroteHeader bool
	failed      bool
}

func newRecorder(w http.ResponseWriter, sink func(p []byte) error) *recorder {
	return &recorder{rw: w, sink: sink}
}

func (rec *recorder) Header() http.Header {
	return rec.rw.Header()
}

func (rec *recorder) WriteHeader(code int) {
	if rec.wroteHeader {
		return
	}
	rec.wroteHeader = true
	rec.status = code

	if code != http.StatusOK {
		rec.failed = true
	} else {
		rec.record(head(code, rec.rw.Header()))
	}
	rec.rw.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		// net/http sniffs after this point, the cached head needs it now
		if h := rec.rw.Header(); h.Get("Content-Type") == "" && len(b) > 0 {
			h.Set("Content-Type", http.DetectContentType(b))
		}
		rec.WriteHeader(http.StatusOK)
	}
	rec.record(b)
	return rec.rw.Write(b)
}

// Flush keeps streaming upstreams streaming.
func (rec *recorder) Flush() {
	if f, ok := rec.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *recorder) Unwrap() http.ResponseWriter {
	return rec.rw
}

// Cacheable reports whether the recorded response is complete and worth keeping.
func (rec *recorder) Cacheable() bool {
	return rec.wroteHeader && !rec.failed
}

func (rec *recorder) record(p []byte) {
	if rec.failed || len(p) == 0 {
		return
	}
	if err := rec.sink(p); err != nil {
		rec.failed = true
	}
}

func head(code int, h http.Header) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", code, http.StatusText(code))
	_ = h.WriteSubset(&buf, hopHeaders)
	buf.WriteString("Connection: close\r\n\r\n")
	return buf.Bytes()
}
