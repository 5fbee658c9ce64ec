// Package gate implements the skill acknowledgment gate for agent-facing API
// paths.
//
// A gated request must carry the passphrase published only in the skill
// document. Listing endpoints additionally require a free-text rationale and
// a declared permission state. The response to a failed check points at the
// skill document but never spells out the expected values, so a caller has
// to read the document before it can build a valid request.
//
// This is a deterrent, not a security boundary: the passphrase travels in the
// query string and ends up in logs, referrers and browser history. Never rely
// on it to protect data.
package gate

import (
	"crypto/subtle"
	"net/url"
	"slices"
	"strings"

	"dailybit/internal/platform/config"
)

// Query parameter names read by the gate.
const (
	ParamAck       = "ack"
	ParamRationale = "rationale"
	ParamPState    = "pstate"
	ParamToken     = "token"
)

// Permission states a caller can declare.
const (
	PStateNoToken  = "no_token"
	PStateHasToken = "has_token"
)

// Decision is the outcome of evaluating one request.
type Decision int

const (
	Pass Decision = iota
	MissingAcknowledgment
	MissingRationale
	MissingPermissionState
	InconsistentPermissionState
)

func (d Decision) String() string {
	switch d {
	case Pass:
		return "pass"
	case MissingAcknowledgment:
		return "missing_acknowledgment"
	case MissingRationale:
		return "missing_rationale"
	case MissingPermissionState:
		return "missing_permission_state"
	case InconsistentPermissionState:
		return "inconsistent_permission_state"
	default:
		return "unknown"
	}
}

// Protocol is the gate configuration. The zero value is not usable; build
// one with New.
type Protocol struct {
	passphrase         []byte
	skillURL           string
	llmsTxtURL         string
	gatedPrefixes      []string
	justifiedPrefixes  []string
	minRationaleLength int
	permissionStates   []string
}

// New builds a Protocol from the gate section of the runtime config.
func New(cfg config.GateConfig) *Protocol {
	minLen := cfg.MinRationaleLength
	if minLen < 1 {
		minLen = config.DefaultMinRationaleLength
	}
	states := cfg.PermissionStates
	if len(states) == 0 {
		states = []string{PStateNoToken, PStateHasToken}
	}
	return &Protocol{
		passphrase:         []byte(cfg.Passphrase),
		skillURL:           cfg.SkillURL,
		llmsTxtURL:         cfg.LlmsTxtURL,
		gatedPrefixes:      slices.Clone(cfg.GatedPrefixes),
		justifiedPrefixes:  slices.Clone(cfg.JustifiedPrefixes),
		minRationaleLength: minLen,
		permissionStates:   slices.Clone(states),
	}
}

// SkillURL is the documentation resource every rejection points at.
func (p *Protocol) SkillURL() string { return p.skillURL }

// IsGated reports whether path is subject to the gate.
func (p *Protocol) IsGated(path string) bool {
	return hasAnyPrefix(path, p.gatedPrefixes)
}

// RequiresJustification reports whether path needs the rationale and
// permission-state stages.
func (p *Protocol) RequiresJustification(path string) bool {
	return hasAnyPrefix(path, p.justifiedPrefixes)
}

// Evaluate runs the gate for one request. It is stateless and never retries;
// the same input always yields the same decision.
func (p *Protocol) Evaluate(path string, query url.Values) Decision {
	if !p.IsGated(path) {
		return Pass
	}

	if !p.acknowledged(query.Get(ParamAck)) {
		return MissingAcknowledgment
	}

	if !p.RequiresJustification(path) {
		return Pass
	}

	if len([]rune(strings.TrimSpace(query.Get(ParamRationale)))) < p.minRationaleLength {
		return MissingRationale
	}

	pstate := query.Get(ParamPState)
	if !slices.Contains(p.permissionStates, pstate) {
		return MissingPermissionState
	}
	if pstate == PStateHasToken && strings.TrimSpace(query.Get(ParamToken)) == "" {
		return InconsistentPermissionState
	}

	return Pass
}

func (p *Protocol) acknowledged(ack string) bool {
	if ack == "" || len(p.passphrase) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(ack), p.passphrase) == 1
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
