// Package classifier scores inbound requests as automated agent or human
// browser from header evidence alone.
//
// The score is a sum of weighted rules; a request is an agent when the total
// reaches Threshold. Low-confidence requests fall below the threshold and are
// treated as human: blocking a real reader is worse than letting a bot through.
package classifier

import (
	"net/http"
	"strings"
)

// Threshold is the minimum score classified as an agent (inclusive).
const Threshold = 40

// Signals are the header facts the rules inspect.
type Signals struct {
	UserAgent    string
	SecFetchMode string
	SecFetchDest string
	SecFetchSite string
	Accept       string
	// ClientNavigation marks same-origin framework navigation. Such requests
	// are never classified as agents.
	ClientNavigation bool
}

// Verdict is the outcome of one classification.
type Verdict struct {
	IsAgent bool
	Score   int
	// Matched lists the names of rules that contributed to Score.
	Matched []string
}

// Classifier applies an ordered rule list against request signals.
type Classifier struct {
	rules     []Rule
	threshold int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) {
		c.rules = rules
	}
}

// WithExtraAgentPatterns adds user-agent substrings to the known-agent rule.
func WithExtraAgentPatterns(patterns ...string) Option {
	return func(c *Classifier) {
		c.rules = DefaultRules(append(append([]string(nil), KnownAgentPatterns...), patterns...)...)
	}
}

// New builds a classifier with the default rules and Threshold.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		rules:     DefaultRules(KnownAgentPatterns...),
		threshold: Threshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scores s. It is pure and deterministic.
func (c *Classifier) Classify(s Signals) Verdict {
	if s.ClientNavigation {
		return Verdict{}
	}

	var v Verdict
	for _, rule := range c.rules {
		if rule.Match(s) {
			v.Score += rule.Weight
			v.Matched = append(v.Matched, rule.Name)
		}
	}
	v.IsAgent = v.Score >= c.threshold
	return v
}

// Rules returns a copy of the configured rule list.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// SignalsFromHeader extracts classifier signals from request headers.
// navHeader names the header whose value "1" marks client-side navigation;
// an empty name disables the short-circuit.
func SignalsFromHeader(h http.Header, navHeader string) Signals {
	s := Signals{
		UserAgent:    h.Get("User-Agent"),
		SecFetchMode: strings.ToLower(strings.TrimSpace(h.Get("Sec-Fetch-Mode"))),
		SecFetchDest: strings.ToLower(strings.TrimSpace(h.Get("Sec-Fetch-Dest"))),
		SecFetchSite: strings.ToLower(strings.TrimSpace(h.Get("Sec-Fetch-Site"))),
		Accept:       strings.TrimSpace(h.Get("Accept")),
	}
	if navHeader != "" {
		s.ClientNavigation = h.Get(navHeader) == "1"
	}
	return s
}
