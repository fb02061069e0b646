package key

import "strings"

// RequestView is the read-only part of an HTTP request the key builder looks at.
type RequestView interface {
	// Method is the request method as received.
	Method() string
	// IsTLS reports whether the request came over a secured transport.
	IsTLS() bool
	// Header returns the value of the first occurrence of name.
	Header(name string) (value string, ok bool)
	// Target is the request-line target starting at the path, scheme and authority stripped.
	// Empty when the request line has no path.
	Target() string
	// Body is the buffered request body.
	Body() []byte
}

// CookieExtractor finds the value of the first cookie called name inside a Cookie header value.
type CookieExtractor func(header, name string) (value string, ok bool)

// FirstCookie is the default CookieExtractor. Pairs are separated by ';' and
// leading whitespace before a cookie name is ignored.
func FirstCookie(header, name string) (string, bool) {
	for header != "" {
		var pair string
		pair, header, _ = strings.Cut(header, ";")
		pair = strings.TrimLeft(pair, " \t")

		n, v, found := strings.Cut(pair, "=")
		if !found || n != name {
			continue
		}
		return strings.TrimRight(v, " \t"), true
	}
	return "", false
}

var knownMethods = map[string]struct{}{
	"OPTIONS": {},
	"GET":     {},
	"HEAD":    {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"TRACE":   {},
	"CONNECT": {},
}

const otherMethod = "<OTHER>"

// canonicalMethod maps extension methods onto one token, like the request parser does.
func canonicalMethod(m string) string {
	if _, ok := knownMethods[m]; ok {
		return m
	}
	return otherMethod
}
