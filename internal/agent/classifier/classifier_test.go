package classifier

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_IndividualWeights(t *testing.T) {
	// Baseline signals trigger no rule at all: mode is set but not
	// programmatic or navigate, and accept is specific but not HTML.
	base := Signals{SecFetchMode: "same-origin", Accept: "application/json"}
	require.Equal(t, 0, New().Classify(base).Score)

	tests := []struct {
		name   string
		mutate func(*Signals)
		rule   string
		weight int
	}{
		{"known agent", func(s *Signals) { s.UserAgent = "Mozilla/5.0 (compatible; gptbot/1.2)" }, RuleKnownAgent, 100},
		{"missing fetch mode", func(s *Signals) { s.SecFetchMode = "" }, RuleMissingFetchMode, 40},
		{"cors mode", func(s *Signals) { s.SecFetchMode = "cors" }, RuleProgrammaticMode, 30},
		{"no-cors mode", func(s *Signals) { s.SecFetchMode = "no-cors" }, RuleProgrammaticMode, 30},
		{"wildcard accept", func(s *Signals) { s.Accept = "*/*" }, RuleGenericAccept, 20},
		{"navigate mode", func(s *Signals) { s.SecFetchMode = "navigate" }, RuleNavigate, -100},
		{"document destination", func(s *Signals) { s.SecFetchDest = "document" }, RuleDocumentDest, -50},
		{"same-origin site", func(s *Signals) { s.SecFetchSite = "same-origin" }, RuleSameOrigin, -60},
		{"html accept", func(s *Signals) { s.Accept = "text/html,application/xhtml+xml" }, RuleAcceptsHTML, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			v := New().Classify(s)
			assert.Equal(t, tt.weight, v.Score)
			assert.Equal(t, []string{tt.rule}, v.Matched)
		})
	}
}

func TestClassify_ThresholdIsInclusive(t *testing.T) {
	// Missing mode alone scores exactly 40.
	v := New().Classify(Signals{Accept: "application/json"})
	assert.Equal(t, Threshold, v.Score)
	assert.True(t, v.IsAgent)

	// cors with a specific accept header scores 30.
	v = New().Classify(Signals{SecFetchMode: "cors", Accept: "application/json"})
	assert.Equal(t, 30, v.Score)
	assert.False(t, v.IsAgent)
}

func TestClassify_NavigateDocumentIsAlwaysHuman(t *testing.T) {
	uas := append([]string{"", "curl/8.0", "Mozilla/5.0"}, KnownAgentPatterns...)
	accepts := []string{"", "*/*", "text/html", "application/json"}
	sites := []string{"", "same-origin", "cross-site", "none"}

	c := New()
	for _, ua := range uas {
		for _, accept := range accepts {
			for _, site := range sites {
				v := c.Classify(Signals{
					UserAgent:    ua,
					SecFetchMode: "navigate",
					SecFetchDest: "document",
					SecFetchSite: site,
					Accept:       accept,
				})
				assert.False(t, v.IsAgent, "ua=%q accept=%q site=%q score=%d", ua, accept, site, v.Score)
			}
		}
	}
}

func TestClassify_KnownAgentWithoutBrowserHintsIsAgent(t *testing.T) {
	modes := []string{"", "cors", "no-cors", "same-origin"}
	dests := []string{"", "document", "empty"}
	accepts := []string{"", "*/*", "text/html", "application/json"}

	c := New()
	for _, ua := range KnownAgentPatterns {
		for _, mode := range modes {
			for _, dest := range dests {
				for _, accept := range accepts {
					v := c.Classify(Signals{UserAgent: ua, SecFetchMode: mode, SecFetchDest: dest, Accept: accept})
					assert.True(t, v.IsAgent, "ua=%q mode=%q dest=%q accept=%q score=%d", ua, mode, dest, accept, v.Score)
				}
			}
		}
	}
}

func TestClassify_ClientNavigationShortCircuits(t *testing.T) {
	v := New().Classify(Signals{UserAgent: "GPTBot", Accept: "*/*", ClientNavigation: true})
	assert.False(t, v.IsAgent)
	assert.Zero(t, v.Score)
	assert.Empty(t, v.Matched)
}

func TestClassify_NavigateDominatesKnownBot(t *testing.T) {
	h := http.Header{}
	h.Set("User-Agent", "GPTBot")
	h.Set("Sec-Fetch-Mode", "navigate")

	v := New().Classify(SignalsFromHeader(h, "RSC"))
	assert.False(t, v.IsAgent)
	assert.Equal(t, 20, v.Score, "100 (bot) - 100 (navigate) + 20 (empty accept)")
}

func TestClassify_BareScriptedClientIsAgent(t *testing.T) {
	h := http.Header{}
	h.Set("User-Agent", "python-requests/2.32")
	h.Set("Accept", "*/*")

	v := New().Classify(SignalsFromHeader(h, "RSC"))
	assert.True(t, v.IsAgent)
	assert.Equal(t, 60, v.Score)
}

func TestSignalsFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set("sec-fetch-mode", " Navigate ")
	h.Set("SEC-FETCH-DEST", "Document")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("rsc", "1")

	s := SignalsFromHeader(h, "RSC")
	assert.Equal(t, "navigate", s.SecFetchMode)
	assert.Equal(t, "document", s.SecFetchDest)
	assert.Equal(t, "same-origin", s.SecFetchSite)
	assert.True(t, s.ClientNavigation)

	assert.False(t, SignalsFromHeader(h, "").ClientNavigation)
}

func TestWithExtraAgentPatterns(t *testing.T) {
	s := Signals{UserAgent: "AcmeResearchCrawler/0.1", SecFetchMode: "navigate", Accept: "text/html"}
	assert.Equal(t, -110, New().Classify(s).Score)
	assert.Equal(t, -10, New(WithExtraAgentPatterns("acmeresearchcrawler")).Classify(s).Score)
}

func TestWithRules(t *testing.T) {
	c := New(WithRules([]Rule{{Name: "always", Weight: 40, Match: func(Signals) bool { return true }}}))
	v := c.Classify(Signals{SecFetchMode: "navigate"})
	assert.True(t, v.IsAgent)
	assert.Len(t, c.Rules(), 1)
}
