package key

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownComponent = errors.New("unknown key component")

// Kind tags a key component.
type Kind uint8

const (
	KindMethod Kind = iota + 1
	KindScheme
	KindHost
	KindPath
	KindQuery
	KindParam
	KindHeader
	KindCookie
	KindBody
)

var kindNames = [...]string{
	KindMethod: "method",
	KindScheme: "scheme",
	KindHost:   "host",
	KindPath:   "path",
	KindQuery:  "query",
	KindParam:  "param",
	KindHeader: "header",
	KindCookie: "cookie",
	KindBody:   "body",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Component is one piece of a cache key. Param, Header and Cookie carry a name.
type Component struct {
	kind Kind
	name string
}

func Method() Component            { return Component{kind: KindMethod} }
func Scheme() Component            { return Component{kind: KindScheme} }
func Host() Component              { return Component{kind: KindHost} }
func Path() Component              { return Component{kind: KindPath} }
func Query() Component             { return Component{kind: KindQuery} }
func Body() Component              { return Component{kind: KindBody} }
func Param(name string) Component  { return Component{kind: KindParam, name: name} }
func Header(name string) Component { return Component{kind: KindHeader, name: name} }
func Cookie(name string) Component { return Component{kind: KindCookie, name: name} }
func (c Component) Kind() Kind     { return c.kind }
func (c Component) Name() string   { return c.name }

func (c Component) String() string {
	if c.name != "" {
		return c.kind.String() + "_" + c.name
	}
	return c.kind.String()
}

// Parse reads a config token such as "path" or "header_X-Device".
func Parse(token string) (Component, error) {
	switch token {
	case "method":
		return Method(), nil
	case "scheme":
		return Scheme(), nil
	case "host":
		return Host(), nil
	case "path":
		return Path(), nil
	case "query":
		return Query(), nil
	case "body":
		return Body(), nil
	}

	prefix, name, found := strings.Cut(token, "_")
	if !found || name == "" {
		return Component{}, fmt.Errorf("%w: %q", ErrUnknownComponent, token)
	}
	switch prefix {
	case "param":
		return Param(name), nil
	case "header":
		return Header(name), nil
	case "cookie":
		return Cookie(name), nil
	default:
		return Component{}, fmt.Errorf("%w: %q", ErrUnknownComponent, token)
	}
}

// ParseList parses tokens preserving their order.
func ParseList(tokens []string) ([]Component, error) {
	out := make([]Component, 0, len(tokens))
	for _, token := range tokens {
		c, err := Parse(token)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
