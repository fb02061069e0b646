// Package httpview adapts *http.Request to the key builder's request view.
package httpview

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// View is a read-only look at a request. Construct it with New.
type View struct {
	r         *http.Request
	body      []byte
	truncated bool
}

// New buffers up to maxBody bytes of a POST or PUT body and puts them back in front of
// the rest, so the next handler still reads the whole body.
func New(r *http.Request, maxBody int64) (*View, error) {
	v := &View{r: r}
	if r.Body == nil || r.Body == http.NoBody || (r.Method != http.MethodPost && r.Method != http.MethodPut) {
		return v, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}

	if int64(len(buf)) > maxBody {
		v.truncated = true
	} else {
		v.body = buf
	}
	return v, nil
}

func (v *View) Method() string { return v.r.Method }
func (v *View) IsTLS() bool    { return v.r.TLS != nil }
func (v *View) Body() []byte   { return v.body }

// Truncated reports a body larger than the buffer limit. Such a body is not exposed.
func (v *View) Truncated() bool { return v.truncated }

// Header returns the first value of name. net/http moves Host out of the header map,
// so it is served from the request itself.
func (v *View) Header(name string) (string, bool) {
	if strings.EqualFold(name, "Host") {
		return v.r.Host, v.r.Host != ""
	}
	vals := v.r.Header.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Target is the path and query as sent on the request line.
func (v *View) Target() string {
	if uri := v.r.RequestURI; strings.HasPrefix(uri, "/") {
		return uri
	}
	u := v.r.URL
	if u == nil {
		return ""
	}
	target := u.EscapedPath()
	if u.RawQuery != "" || u.ForceQuery {
		target += "?" + u.RawQuery
	}
	return target
}
