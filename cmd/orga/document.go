package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import tasks and dependencies from a YAML, JSON or HCL document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := task.Import(cmd.Context(), s.tasks, doc)
			if err != nil {
				return err
			}
			log.Info().
				Int("created", res.Created).
				Int("updated", res.Updated).
				Int("linked", res.Linked).
				Msg("import finished")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as a YAML, JSON or HCL document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, formatYAML, formatJSON, formatHCL); err != nil {
				return err
			}
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := task.Export(cmd.Context(), s.tasks)
			if err != nil {
				return err
			}
			data, err := doc.Marshal(format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			log.Info().Str("path", output).Int("tasks", len(doc.Tasks)).Msg("export written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "document format: yaml, json or hcl")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// readDocument parses a document from path, or from stdin when path is "-".
// Files ending in .hcl are read as HCL, everything else as YAML or JSON.
func readDocument(cmd *cobra.Command, path string) (*task.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return task.ParseHCLDocument(data, path)
	}
	return task.ParseDocument(data)
}
