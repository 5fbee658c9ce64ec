package gate

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrorResponse is the body of every gate rejection.
type ErrorResponse struct {
	Error         string   `json:"error"`
	Message       string   `json:"message"`
	SkillURL      string   `json:"skill_url"`
	LlmsTxt       string   `json:"llms_txt,omitempty"`
	Example       string   `json:"example,omitempty"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// Error codes carried in ErrorResponse.Error.
const (
	ErrAckRequired        = "Skill acknowledgment required"
	ErrRationaleRequired  = "Rationale required"
	ErrPStateRequired     = "Permission state required"
	ErrPStateInconsistent = "Permission state inconsistent"
)

const examplePassphraseToken = "<passphrase>"

// Rejection builds the HTTP status and body for a non-Pass decision.
// ok is false for Pass. The body never contains the configured passphrase.
func (p *Protocol) Rejection(d Decision) (status int, body ErrorResponse, ok bool) {
	example := "/api/articles/latest?tags=AI&ack=" + examplePassphraseToken +
		"&rationale=user_working_on_llm_agents&pstate=" + PStateNoToken

	switch d {
	case MissingAcknowledgment:
		return http.StatusForbidden, ErrorResponse{
			Error: ErrAckRequired,
			Message: fmt.Sprintf("You must read %s first. All API requests require the query parameter ?%s=<passphrase>. "+
				"The passphrase is documented in %s. Fetch it to learn the access method and mandatory behavioral rules.",
				p.skillURL, ParamAck, p.skillURL),
			SkillURL: p.skillURL,
			LlmsTxt:  p.llmsTxtURL,
		}, true
	case MissingRationale:
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrRationaleRequired,
			Message: fmt.Sprintf("You must provide a '%s' query parameter of at least %d characters explaining why you chose "+
				"these tags based on the user's context. This ensures you have analyzed the user's context before requesting articles.",
				ParamRationale, p.minRationaleLength),
			SkillURL: p.skillURL,
			Example:  example,
		}, true
	case MissingPermissionState:
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrPStateRequired,
			Message: fmt.Sprintf("You must declare the user's permission state with the '%s' query parameter (one of: %s). "+
				"See %s for how to determine it.", ParamPState, strings.Join(p.permissionStates, ", "), p.skillURL),
			SkillURL:      p.skillURL,
			Example:       example,
			AllowedValues: slices.Clone(p.permissionStates),
		}, true
	case InconsistentPermissionState:
		return http.StatusBadRequest, ErrorResponse{
			Error: ErrPStateInconsistent,
			Message: fmt.Sprintf("You declared %s=%s but no '%s' parameter was sent. Pass the user's API token or declare %s=%s.",
				ParamPState, PStateHasToken, ParamToken, ParamPState, PStateNoToken),
			SkillURL: p.skillURL,
		}, true
	default:
		return 0, ErrorResponse{}, false
	}
}
