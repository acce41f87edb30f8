package main

import (
	"github.com/spf13/cobra"

	"liheapcli/internal/config"
	"liheapcli/pkg/contracts"
)

// rootOptions holds the persistent flags shared by every subcommand
type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "liheap",
		Short:   "Build the LIHEAP pledge analysis tables",
		Version: contracts.GetVersionString(),
		Long: `liheap turns raw LIHEAP pledge exports and public reference data into a
ZIP-year analysis table. Each stage reads the files written by the stages
before it, so stages can be re-run one at a time or chained with "run".

Configuration comes from defaults, an optional YAML file and LIHEAP_*
environment variables, in increasing order of precedence.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./liheap.yaml or ./configs/liheap.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	for _, stage := range stageCommands {
		cmd.AddCommand(newStageCmd(opts, stage))
	}
	cmd.AddCommand(newRunCmd(opts))
	return cmd
}

// loadConfig loads the configuration and applies the root flag overrides
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}
