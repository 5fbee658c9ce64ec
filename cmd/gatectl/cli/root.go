// Package cli implements gatectl, an offline tool for checking how the agent
// classifier and skill gate treat a given request.
package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"dailybit/internal/platform/config"
	"dailybit/internal/platform/logger"
)

type options struct {
	cfgFile string
	verbose bool
	logger  *slog.Logger
}

// NewRootCmd builds the command tree. Each call returns independent flag
// state.
func NewRootCmd() *cobra.Command {
	opts := &options{logger: logger.Discard()}

	root := &cobra.Command{
		Use:   "gatectl",
		Short: "Inspect agent classification and skill gate decisions",
		Long: `gatectl replays request headers and URLs against the agent classifier
and the skill acknowledgment gate without starting the server. The gate
settings come from SKILL_PASSPHRASE and an optional YAML overlay.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if opts.verbose {
				level = "debug"
			}
			opts.logger = logger.NewWithWriter(cmd.ErrOrStderr(), level, "json")
		},
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "gate config file (YAML)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newClassifyCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *options) gateConfig() (config.GateConfig, error) {
	cfg := config.DefaultGate()
	if o.cfgFile == "" {
		return cfg, nil
	}
	if err := config.LoadGateFile(o.cfgFile, &cfg); err != nil {
		return config.GateConfig{}, err
	}
	o.logger.Debug("gate config loaded", "path", o.cfgFile)
	return cfg, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
