package matcher

import "context"

type pairKey struct {
	a, b string
}

// memo caches results of an underlying Matcher by unordered pair. It is meant
// to live for a single clustering pass and is not safe for concurrent use.
type memo struct {
	m     Matcher
	cache map[pairKey]bool
}

// Memoize wraps m so that repeated pairs are only evaluated once.
func Memoize(m Matcher) Matcher {
	if _, ok := m.(*memo); ok {
		return m
	}
	return &memo{m: m, cache: make(map[pairKey]bool)}
}

func (c *memo) Similar(ctx context.Context, a, b string) bool {
	key := pairKey{a, b}
	if b < a {
		key = pairKey{b, a}
	}
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := c.m.Similar(ctx, a, b)
	c.cache[key] = v
	return v
}
