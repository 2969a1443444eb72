package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)
	root := &cobra.Command{
		Use:           "zerosum",
		Short:         "Recursively summarize documents down to a token budget",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(configPath, logLevel)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./zerosum.yaml or $HOME/.zerosum/zerosum.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level (debug, info, warn, error)")

	root.AddCommand(
		newSummarizeCmd(a),
		newTokensCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
	)
	return root
}
