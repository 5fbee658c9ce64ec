package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"dailybit/internal/agent/classifier"
)

type classifyResult struct {
	IsAgent bool     `json:"is_agent"`
	Score   int      `json:"score"`
	Matched []string `json:"matched"`
}

func newClassifyCmd(opts *options) *cobra.Command {
	var (
		userAgent string
		accept    string
		fetchMode string
		fetchDest string
		fetchSite string
		headers   []string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a request from its headers",
		Example: `  gatectl classify --user-agent "curl/8.4.0"
  gatectl classify --user-agent "Mozilla/5.0" --sec-fetch-mode navigate --accept "text/html"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.gateConfig()
			if err != nil {
				return err
			}

			h := http.Header{}
			set := func(name, value string) {
				if value != "" {
					h.Set(name, value)
				}
			}
			set("User-Agent", userAgent)
			set("Accept", accept)
			set("Sec-Fetch-Mode", fetchMode)
			set("Sec-Fetch-Dest", fetchDest)
			set("Sec-Fetch-Site", fetchSite)
			for _, kv := range headers {
				name, value, ok := strings.Cut(kv, ":")
				if !ok {
					return fmt.Errorf("invalid header %q, expected Name: value", kv)
				}
				h.Set(strings.TrimSpace(name), strings.TrimSpace(value))
			}

			c := classifier.New(classifier.WithExtraAgentPatterns(cfg.ExtraAgentPatterns...))
			v := c.Classify(classifier.SignalsFromHeader(h, cfg.ClientNavHeader))
			opts.logger.Debug("classified", "score", v.Score, "matched", v.Matched)

			matched := v.Matched
			if matched == nil {
				matched = []string{}
			}
			return writeJSON(cmd.OutOrStdout(), classifyResult{IsAgent: v.IsAgent, Score: v.Score, Matched: matched})
		},
	}

	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header")
	cmd.Flags().StringVar(&accept, "accept", "", "Accept header")
	cmd.Flags().StringVar(&fetchMode, "sec-fetch-mode", "", "Sec-Fetch-Mode header")
	cmd.Flags().StringVar(&fetchDest, "sec-fetch-dest", "", "Sec-Fetch-Dest header")
	cmd.Flags().StringVar(&fetchSite, "sec-fetch-site", "", "Sec-Fetch-Site header")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header as 'Name: value' (repeatable)")
	return cmd
}
