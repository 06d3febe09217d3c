package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/metalagman/orgarhythm/internal/config"
	"github.com/metalagman/orgarhythm/internal/plan"
	"github.com/metalagman/orgarhythm/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func planCmd() *cobra.Command {
	var (
		format   string
		start    string
		slotDays int
		save     bool
		saved    bool
		scoring  scoringFlags
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Seed a repeated-attempt schedule from the task metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			if saved && save {
				return fmt.Errorf("--saved cannot be combined with --save")
			}
			cal, err := planCalendar(cmd, start, slotDays)
			if err != nil {
				return err
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			if saved {
				attempts, err := s.snapshots.Attempts(ctx)
				if err != nil {
					return err
				}
				if ok, err := writeEncoded(cmd.OutOrStdout(), format, attempts); ok {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), ui.RenderAttempts(attempts))
				return err
			}
			reg, err := s.tasks.Registry(ctx)
			if err != nil {
				return err
			}
			p, err := plan.Build(ctx, reg, scoring.options(cmd), cal)
			if err != nil {
				return err
			}
			if save {
				if err := s.snapshots.SaveAttempts(ctx, p); err != nil {
					return err
				}
				log.Info().Int("attempts", len(p.Attempts)).Msg("attempts saved")
			}
			if ok, err := writeEncoded(cmd.OutOrStdout(), format, p); ok {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), ui.RenderPlan(p))
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	cmd.Flags().StringVar(&start, "start", "", "date of slot 1, YYYY-MM-DD (overrides plan.start_date)")
	cmd.Flags().IntVar(&slotDays, "slot-days", 0, "days per slot (overrides plan.slot_days)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the attempts to the database")
	cmd.Flags().BoolVar(&saved, "saved", false, "print the attempts stored by the last --save")
	scoring.register(cmd)
	cmd.AddCommand(planMoveCmd())
	return cmd
}

func planMoveCmd() *cobra.Command {
	var (
		start    string
		slotDays int
	)
	cmd := &cobra.Command{
		Use:   "move <task> <attempt> <slot>",
		Short: "Move a saved attempt to another slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse attempt number: %w", err)
			}
			slot, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parse slot: %w", err)
			}
			cal, err := planCalendar(cmd, start, slotDays)
			if err != nil {
				return err
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			var date string
			if cal != nil && slot >= 1 {
				date = cal.Date(slot).Format(config.DateLayout)
			}
			if err := s.snapshots.UpdateSlotIndex(cmd.Context(), args[0], number, slot, date); err != nil {
				return err
			}
			log.Info().Str("task", args[0]).Int("attempt", number).Int("slot", slot).Msg("attempt moved")
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "date of slot 1, YYYY-MM-DD (overrides plan.start_date)")
	cmd.Flags().IntVar(&slotDays, "slot-days", 0, "days per slot (overrides plan.slot_days)")
	return cmd
}

func planCalendar(cmd *cobra.Command, start string, slotDays int) (*plan.Calendar, error) {
	cfg := configFrom(cmd)
	if start != "" {
		parsed, err := time.Parse(config.DateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("parse --start: %w", err)
		}
		cfg.Plan.StartDate = parsed
	}
	if cmd.Flags().Changed("slot-days") {
		if slotDays < 1 {
			return nil, fmt.Errorf("--slot-days must be >= 1, got %d", slotDays)
		}
		cfg.Plan.SlotDays = slotDays
	}
	return cfg.Calendar(), nil
}
