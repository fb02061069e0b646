package cache

import (
	"fmt"
	"strings"

	"github.com/Borislavv/go-ash-httpcache/config"
	"github.com/Borislavv/go-ash-httpcache/internal/cache/key"
)

// Condition gates a rule. Implementations must not retain view.
type Condition interface {
	Match(view key.RequestView) bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(view key.RequestView) bool

func (f ConditionFunc) Match(view key.RequestView) bool { return f(view) }

// Always matches every request.
func Always() Condition {
	return ConditionFunc(func(key.RequestView) bool { return true })
}

// MethodIs matches any of the given methods, compared exactly.
func MethodIs(methods ...string) Condition {
	return ConditionFunc(func(view key.RequestView) bool {
		m := view.Method()
		for _, want := range methods {
			if m == want {
				return true
			}
		}
		return false
	})
}

// PathPrefix matches when the request path starts with prefix.
func PathPrefix(prefix string) Condition {
	return ConditionFunc(func(view key.RequestView) bool {
		path, _, _ := strings.Cut(view.Target(), "?")
		return strings.HasPrefix(path, prefix)
	})
}

// HeaderPresent matches when the request carries the header at all.
func HeaderPresent(name string) Condition {
	return ConditionFunc(func(view key.RequestView) bool {
		_, ok := view.Header(name)
		return ok
	})
}

// All matches when every condition does. No conditions match everything.
func All(conds ...Condition) Condition {
	return ConditionFunc(func(view key.RequestView) bool {
		for _, c := range conds {
			if !c.Match(view) {
				return false
			}
		}
		return true
	})
}

// Rule decides whether a request is cacheable, how its key is derived and how long
// the response lives. Immutable once built.
type Rule struct {
	name       string
	ttl        uint32
	components []key.Component
	cond       Condition
	unless     bool
}

// NewRule builds a rule. A nil cond matches every request; unless inverts it.
func NewRule(name string, ttl uint32, components []key.Component, cond Condition, unless bool) *Rule {
	if cond == nil {
		cond = Always()
	}
	return &Rule{name: name, ttl: ttl, components: components, cond: cond, unless: unless}
}

func (r *Rule) Name() string                { return r.name }
func (r *Rule) TTL() uint32                 { return r.ttl }
func (r *Rule) Components() []key.Component { return r.components }

// Test evaluates the condition with its polarity applied.
func (r *Rule) Test(view key.RequestView) bool {
	return r.cond.Match(view) != r.unless
}

// RulesFromConfig builds rules in configuration order.
func RulesFromConfig(cfgs []config.RuleCfg) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		components, err := key.ParseList(rc.Key)
		if err != nil {
			return nil, fmt.Errorf("rule #%d %q: %w", i, rc.Name, err)
		}

		var (
			cond   Condition
			unless bool
		)
		if m := rc.Match; m != nil {
			var conds []Condition
			if len(m.Methods) > 0 {
				conds = append(conds, MethodIs(m.Methods...))
			}
			if m.PathPrefix != "" {
				conds = append(conds, PathPrefix(m.PathPrefix))
			}
			if m.Header != "" {
				conds = append(conds, HeaderPresent(m.Header))
			}
			cond, unless = All(conds...), m.Unless
		}
		rules = append(rules, NewRule(rc.Name, rc.TTL, components, cond, unless))
	}
	return rules, nil
}
