// Package key derives cache keys from requests.
//
// A key is the raw concatenation of the rule's components in order. No separators,
// escaping, decoding or case folding are applied, so host="ab",path="" and
// host="a",path="b" produce the same key.
package key

import (
	"errors"
	"strings"
)

var ErrOutOfMemory = errors.New("key buffer exhausted")

// Builder derives keys. It holds no per-request state and may be shared.
type Builder struct {
	increment    int
	limit        int // zero means unbounded
	bodyMatching bool
	cookie       CookieExtractor
}

func NewBuilder(increment, limit int, bodyMatching bool, cookie CookieExtractor) *Builder {
	if increment <= 0 {
		increment = 1
	}
	if cookie == nil {
		cookie = FirstCookie
	}
	return &Builder{increment: increment, limit: limit, bodyMatching: bodyMatching, cookie: cookie}
}

// Build returns the key for view. On ErrOutOfMemory no partial key is returned.
func (b *Builder) Build(components []Component, view RequestView) (string, error) {
	buf := buffer{b: make([]byte, 0, b.initialSize()), increment: b.increment, limit: b.limit}

	target := view.Target()
	path, query, hasQuery := strings.Cut(target, "?")

	for _, c := range components {
		var ok = true
		switch c.kind {
		case KindMethod:
			ok = buf.appendString(canonicalMethod(view.Method()))
		case KindScheme:
			if view.IsTLS() {
				ok = buf.appendString("HTTPS")
			} else {
				ok = buf.appendString("HTTP")
			}
		case KindHost:
			if host, found := view.Header("Host"); found {
				ok = buf.appendString(host)
			}
		case KindPath:
			ok = buf.appendString(path)
		case KindQuery:
			if hasQuery {
				ok = buf.appendString(query)
			}
		case KindParam:
			if hasQuery {
				if v, found := FindParam(query, c.name); found {
					ok = buf.appendString(v)
				}
			}
		case KindHeader:
			if v, found := view.Header(c.name); found {
				ok = buf.appendString(v)
			}
		case KindCookie:
			if header, found := view.Header("Cookie"); found {
				if v, found := b.cookie(header, c.name); found {
					ok = buf.appendString(v)
				}
			}
		case KindBody:
			if b.bodyMatching {
				if m := canonicalMethod(view.Method()); m == "POST" || m == "PUT" {
					if body := view.Body(); len(body) > 0 {
						ok = buf.appendBytes(body)
					}
				}
			}
		}
		if !ok {
			return "", ErrOutOfMemory
		}
	}

	return string(buf.b), nil
}

func (b *Builder) initialSize() int {
	if b.limit > 0 && b.limit < b.increment {
		return b.limit
	}
	return b.increment
}

// FindParam returns the value of the first name=value pair of query. The name must
// start the query or follow '&', and at least one byte must follow the '='.
func FindParam(query, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for i := 0; i+len(name)+1 < len(query); i++ {
		if query[i+len(name)] != '=' || query[i:i+len(name)] != name {
			continue
		}
		if i != 0 && query[i-1] != '&' {
			continue
		}
		v := query[i+len(name)+1:]
		if end := strings.IndexByte(v, '&'); end >= 0 {
			v = v[:end]
		}
		return v, true
	}
	return "", false
}

// buffer grows in whole increments so a key costs a logarithmic-ish number of reallocations.
type buffer struct {
	b         []byte
	increment int
	limit     int
}

func (buf *buffer) grow(n int) bool {
	need := len(buf.b) + n
	if need <= cap(buf.b) {
		return true
	}
	if buf.limit > 0 && need > buf.limit {
		return false
	}

	size := cap(buf.b) + ((need-cap(buf.b))/buf.increment+1)*buf.increment
	if buf.limit > 0 && size > buf.limit {
		size = buf.limit
	}

	grown := make([]byte, len(buf.b), size)
	copy(grown, buf.b)
	buf.b = grown
	return true
}

func (buf *buffer) appendString(s string) bool {
	if !buf.grow(len(s)) {
		return false
	}
	buf.b = append(buf.b, s...)
	return true
}

func (buf *buffer) appendBytes(p []byte) bool {
	if !buf.grow(len(p)) {
		return false
	}
	buf.b = append(buf.b, p...)
	return true
}
