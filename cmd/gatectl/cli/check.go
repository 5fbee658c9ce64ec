package cli

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"dailybit/internal/gate"
)

type checkResult struct {
	Path     string              `json:"path"`
	Gated    bool                `json:"gated"`
	Decision string              `json:"decision"`
	Status   int                 `json:"status"`
	Body     *gate.ErrorResponse `json:"body,omitempty"`
}

func newCheckCmd(opts *options) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the skill gate for a URL",
		Long: `Evaluate the skill gate for a URL as if it came from a classified agent.
Prints the decision and, for a rejection, the response the server would send.`,
		Example: `  gatectl check --url "/api/articles/latest?ack=secret&rationale=user_reading_news&pstate=no_token"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.gateConfig()
			if err != nil {
				return err
			}

			u, err := url.Parse(target)
			if err != nil {
				return fmt.Errorf("parse url: %w", err)
			}
			path := u.Path
			if path == "" {
				path = "/"
			}

			p := gate.New(cfg)
			decision := p.Evaluate(path, u.Query())
			result := checkResult{
				Path:     path,
				Gated:    p.IsGated(path),
				Decision: decision.String(),
				Status:   http.StatusOK,
			}
			if status, body, ok := p.Rejection(decision); ok {
				result.Status = status
				result.Body = &body
			}
			opts.logger.Debug("gate evaluated", "path", path, "decision", result.Decision)

			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&target, "url", "u", "", "request URL or path with query string")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
