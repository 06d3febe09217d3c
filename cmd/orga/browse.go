package main

import (
	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/ui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse task metrics interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			reg, err := s.tasks.Registry(cmd.Context())
			if err != nil {
				return err
			}
			report, err := graph.Analyze(cmd.Context(), reg, configFrom(cmd).GraphOptions())
			if err != nil {
				return err
			}
			return ui.Browse(report)
		},
	}
}
