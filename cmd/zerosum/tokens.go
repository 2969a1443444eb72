package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"zerosum/internal/document"
)

func newTokensCmd(a *app) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "tokens file...",
		Short: "Print the token length of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				model = a.settings().GetModel()
			}
			docs, err := document.FromFiles(args)
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Fprintln(a.out, d.Describe(a.counter, model))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model whose encoding to use (default llm_model)")
	return cmd
}
