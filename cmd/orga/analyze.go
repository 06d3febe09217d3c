package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/metalagman/orgarhythm/internal/graph"
	"github.com/metalagman/orgarhythm/internal/ui"
	"github.com/metalagman/orgarhythm/internal/watch"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type scoringFlags struct {
	clamp  bool
	strict bool
}

func (f *scoringFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.clamp, "clamp-join-offset", false, "clamp join offsets to the parent's attempts (overrides scoring.clamp_join_offset)")
	cmd.Flags().BoolVar(&f.strict, "strict-cycles", false, "fail when the graph has cycles (overrides scoring.strict_cycles)")
}

func (f *scoringFlags) options(cmd *cobra.Command) graph.Options {
	opts := configFrom(cmd).GraphOptions()
	if cmd.Flags().Changed("clamp-join-offset") {
		opts.ClampJoinOffset = f.clamp
	}
	if cmd.Flags().Changed("strict-cycles") {
		opts.StrictCycles = f.strict
	}
	return opts
}

func analyzeCmd() *cobra.Command {
	var (
		format  string
		file    string
		save    bool
		latest  bool
		plain   bool
		watchIt bool
		scoring scoringFlags
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute loops, magnitude, percentile, ancestors and join offsets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatTable, formatJSON, formatYAML, formatMarkdown); err != nil {
				return err
			}
			if file != "" && (save || latest) {
				return fmt.Errorf("--file cannot be combined with --save or --latest")
			}
			if watchIt && (file == "" || file == "-") {
				return fmt.Errorf("--watch requires --file with a path")
			}
			ctx := cmd.Context()
			opts := scoring.options(cmd)

			if watchIt {
				return watchDocument(cmd, file, format, plain, opts)
			}

			var report *graph.Report
			switch {
			case file != "":
				var err error
				if report, err = analyzeDocument(cmd, file, opts); err != nil {
					return err
				}
			default:
				s, closeFn, err := openStores(cmd)
				if err != nil {
					return err
				}
				defer closeFn()

				if latest {
					snap, err := s.snapshots.LatestSnapshot(ctx)
					if err != nil {
						return err
					}
					log.Debug().Int64("snapshot", snap.ID).Str("created_at", snap.CreatedAt).Msg("using saved snapshot")
					report = snap.Report
					break
				}
				reg, err := s.tasks.Registry(ctx)
				if err != nil {
					return err
				}
				if report, err = graph.Analyze(ctx, reg, opts); err != nil {
					return err
				}
				if save {
					id, err := s.snapshots.SaveSnapshot(ctx, report, opts)
					if err != nil {
						return err
					}
					log.Info().Int64("snapshot", id).Msg("snapshot saved")
				}
			}
			logCycles(report)
			return writeReport(cmd.OutOrStdout(), format, report, plain)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json, yaml or markdown")
	cmd.Flags().StringVar(&file, "file", "", "analyse a YAML or JSON document instead of the database")
	cmd.Flags().BoolVar(&save, "save", false, "persist the report as a snapshot")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the most recently saved snapshot")
	cmd.Flags().BoolVar(&plain, "plain", false, "render markdown without colours")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "re-analyse the --file document every time it is saved")
	scoring.register(cmd)
	return cmd
}

func analyzeDocument(cmd *cobra.Command, file string, opts graph.Options) (*graph.Report, error) {
	doc, err := readDocument(cmd, file)
	if err != nil {
		return nil, err
	}
	reg, err := doc.Registry()
	if err != nil {
		return nil, err
	}
	return graph.Analyze(cmd.Context(), reg, opts)
}

// watchDocument prints a report for file and again after every save until
// interrupted. Invalid intermediate documents are logged, not fatal.
func watchDocument(cmd *cobra.Command, file, format string, plain bool, opts graph.Options) error {
	w, err := watch.NewFileWatcher(file, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	render := func() {
		report, err := analyzeDocument(cmd, file, opts)
		if err != nil {
			log.Error().Err(err).Str("file", w.Path()).Msg("analyse document")
			return
		}
		logCycles(report)
		if err := writeReport(cmd.OutOrStdout(), format, report, plain); err != nil {
			log.Error().Err(err).Msg("write report")
		}
	}
	render()
	log.Info().Str("file", w.Path()).Msg("watching for changes")
	return w.Run(ctx, render)
}

func logCycles(report *graph.Report) {
	for _, cycle := range report.Cycles {
		log.Warn().Strs("path", cycle).Msg("dependency cycle detected")
	}
}

func writeReport(w io.Writer, format string, report *graph.Report, plain bool) error {
	if ok, err := writeEncoded(w, format, report); ok {
		return err
	}
	if format == formatMarkdown {
		style := ""
		if plain {
			style = ui.PlainStyle
		}
		out, err := ui.RenderMarkdown(ui.ReportMarkdown(report), style, 100)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	_, err := io.WriteString(w, ui.RenderReport(report))
	return err
}
