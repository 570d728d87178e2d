// Package matcher decides whether two one-word answers denote the same concept.
package matcher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

const (
	// DefaultThreshold is the minimum gestalt ratio for two words to be a fuzzy match.
	DefaultThreshold = 0.85
	// DefaultOracleTimeout bounds a single oracle call.
	DefaultOracleTimeout = 3 * time.Second
)

// Matcher reports whether two answers are the same. Implementations must be
// reflexive and commutative and must never fail: faults degrade to false.
type Matcher interface {
	Similar(ctx context.Context, a, b string) bool
}

// Oracle is an optional semantic similarity source, e.g. a language model.
type Oracle interface {
	Similar(ctx context.Context, a, b string) (bool, error)
}

// WordMatcher layers an exact case-insensitive comparison, a fuzzy ratio
// threshold and an optional oracle, in that order.
type WordMatcher struct {
	threshold     float64
	oracle        Oracle
	oracleTimeout time.Duration
	log           logrus.FieldLogger
}

// Option configures a WordMatcher.
type Option func(*WordMatcher)

// WithThreshold sets the fuzzy ratio threshold. A value outside (0, 1] disables
// fuzzy matching.
func WithThreshold(threshold float64) Option {
	return func(m *WordMatcher) {
		m.threshold = threshold
	}
}

// WithOracle enables the semantic oracle. A non-positive timeout falls back to
// DefaultOracleTimeout.
func WithOracle(o Oracle, timeout time.Duration) Option {
	return func(m *WordMatcher) {
		m.oracle = o
		if timeout <= 0 {
			timeout = DefaultOracleTimeout
		}
		m.oracleTimeout = timeout
	}
}

// WithLogger sets the logger used to report oracle failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *WordMatcher) {
		m.log = l
	}
}

// New builds a WordMatcher with fuzzy matching at DefaultThreshold and no oracle.
func New(opts ...Option) *WordMatcher {
	m := &WordMatcher{
		threshold:     DefaultThreshold,
		oracleTimeout: DefaultOracleTimeout,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Exact returns a matcher that only accepts case-insensitive equality.
func Exact() *WordMatcher {
	return New(WithThreshold(0))
}

// Similar implements Matcher.
func (m *WordMatcher) Similar(ctx context.Context, a, b string) (similar bool) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithField("panic", r).Error("word matcher recovered from panic")
			similar = false
		}
	}()

	fa, fb := fold(a), fold(b)
	if fa == fb {
		return true
	}
	if m.threshold > 0 && m.threshold <= 1 && Ratio(fa, fb) >= m.threshold {
		return true
	}
	if m.oracle == nil {
		return false
	}
	return m.askOracle(ctx, fa, fb)
}

// askOracle queries the oracle with the pair in canonical order so the answer
// does not depend on argument order.
func (m *WordMatcher) askOracle(ctx context.Context, a, b string) bool {
	if b < a {
		a, b = b, a
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, m.oracleTimeout)
	defer cancel()

	ok, err := m.oracle.Similar(ctx, a, b)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"word1": a,
			"word2": b,
			"error": err,
		}).Warn("semantic similarity check failed")
		return false
	}
	return ok
}

func fold(s string) string {
	return cases.Fold().String(s)
}
