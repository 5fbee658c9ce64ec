package classifier

import "strings"

// Rule is one weighted signal. Positive weights point towards an agent,
// negative weights towards a browser.
type Rule struct {
	Name   string
	Weight int
	Match  func(Signals) bool
}

// KnownAgentPatterns are user-agent substrings of automated agents and AI
// crawlers, matched case-insensitively.
var KnownAgentPatterns = []string{
	"GPTBot", "ChatGPT-User", "OAI-SearchBot",
	"Claude-Web", "anthropic-ai", "ClaudeBot", "Claude-User",
	"PerplexityBot", "Perplexity",
	"Google-Extended", "Bytespider",
	"CCBot", "cohere-ai", "Amazonbot",
	"YouBot", "Diffbot", "Applebot-Extended",
	"meta-externalagent",
}

// Rule names, exported so tests and metrics can refer to them.
const (
	RuleKnownAgent       = "known_agent_ua"
	RuleMissingFetchMode = "missing_fetch_mode"
	RuleProgrammaticMode = "programmatic_fetch_mode"
	RuleGenericAccept    = "generic_accept"
	RuleNavigate         = "navigate_mode"
	RuleDocumentDest     = "document_destination"
	RuleSameOrigin       = "same_origin_site"
	RuleAcceptsHTML      = "accepts_html"
)

// DefaultRules returns the scoring table. agentPatterns feeds the known-agent
// rule.
func DefaultRules(agentPatterns ...string) []Rule {
	lowered := make([]string, 0, len(agentPatterns))
	for _, p := range agentPatterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	return []Rule{
		{Name: RuleKnownAgent, Weight: 100, Match: func(s Signals) bool {
			ua := strings.ToLower(s.UserAgent)
			for _, p := range lowered {
				if strings.Contains(ua, p) {
					return true
				}
			}
			return false
		}},
		// Browsers always send Sec-Fetch-Mode on top-level navigation.
		{Name: RuleMissingFetchMode, Weight: 40, Match: func(s Signals) bool {
			return s.SecFetchMode == ""
		}},
		{Name: RuleProgrammaticMode, Weight: 30, Match: func(s Signals) bool {
			return s.SecFetchMode == "cors" || s.SecFetchMode == "no-cors"
		}},
		{Name: RuleGenericAccept, Weight: 20, Match: func(s Signals) bool {
			return s.Accept == "" || s.Accept == "*/*"
		}},
		{Name: RuleNavigate, Weight: -100, Match: func(s Signals) bool {
			return s.SecFetchMode == "navigate"
		}},
		{Name: RuleDocumentDest, Weight: -50, Match: func(s Signals) bool {
			return s.SecFetchDest == "document"
		}},
		{Name: RuleSameOrigin, Weight: -60, Match: func(s Signals) bool {
			return s.SecFetchSite == "same-origin"
		}},
		{Name: RuleAcceptsHTML, Weight: -10, Match: func(s Signals) bool {
			return strings.Contains(strings.ToLower(s.Accept), "text/html")
		}},
	}
}
