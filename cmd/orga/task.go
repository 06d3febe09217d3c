package main

import (
	"fmt"
	"strings"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/metalagman/orgarhythm/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage orga tasks",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskLinkCmd())
	cmd.AddCommand(taskRmCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var (
		attrs     graph.Attributes
		team      string
		dependsOn []string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("name is required")
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			id, err := s.tasks.Add(ctx, task.NewTask{Name: name, Attributes: attrs, Team: team})
			if err != nil {
				return err
			}
			for _, dep := range dependsOn {
				if _, err := s.tasks.AddDependency(ctx, name, dep); err != nil {
					return err
				}
			}
			log.Info().Int64("id", id).Msgf("task %s added", name)
			return nil
		},
	}
	cmd.Flags().Float64VarP(&attrs.Difficulty, "difficulty", "d", 0, "difficulty weight")
	cmd.Flags().Float64VarP(&attrs.Priority, "priority", "p", 0, "priority weight")
	cmd.Flags().Float64VarP(&attrs.External, "external", "e", 0, "external dependency weight")
	cmd.Flags().StringVar(&team, "team", "", "owning team")
	cmd.Flags().StringArrayVar(&dependsOn, "depends-on", nil, "prerequisite task name (repeatable)")
	return cmd
}

func taskListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			items, err := s.tasks.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ok, err := writeEncoded(out, format, items); ok {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "no tasks")
				return nil
			}
			fmt.Fprint(out, ui.RenderTasks(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	return cmd
}

func taskLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <task> <depends-on>...",
		Short: "Declare that a task depends on other tasks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			for _, dep := range args[1:] {
				created, err := s.tasks.AddDependency(cmd.Context(), args[0], dep)
				if err != nil {
					return err
				}
				if created {
					log.Info().Msgf("%s now depends on %s", args[0], dep)
				} else {
					log.Info().Msgf("%s already depends on %s", args[0], dep)
				}
			}
			return nil
		},
	}
}

func taskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Remove a task and its dependency edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := s.tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Msgf("task %s removed", args[0])
			return nil
		},
	}
}
