package main

import (
	"fmt"
	"io"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/metalagman/orgarhythm/internal/ui"
	"github.com/spf13/cobra"
)

func nextCmd() *cobra.Command {
	var (
		limit  int
		team   string
		format string
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the highest-impact tasks to plan next",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("-n must be >= 0, got %d", limit)
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			items, err := s.tasks.List(ctx)
			if err != nil {
				return err
			}
			reg, err := s.tasks.Registry(ctx)
			if err != nil {
				return err
			}
			report, err := graph.Analyze(ctx, reg, configFrom(cmd).GraphOptions())
			if err != nil {
				return err
			}
			candidates := task.Prioritize(report, items, task.SelectionPolicy{Team: team, Limit: limit})
			if ok, err := writeEncoded(cmd.OutOrStdout(), format, candidates); ok {
				return err
			}
			if len(candidates) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), ui.RenderCandidates(candidates))
			return err
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of tasks to show, 0 for all")
	cmd.Flags().StringVar(&team, "team", "", "prefer tasks owned by this team")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	return cmd
}
