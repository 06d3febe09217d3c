package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/metalagman/orgarhythm/internal/db"
	"github.com/metalagman/orgarhythm/internal/task"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats shared by commands.
const (
	formatTable    = "table"
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
	formatHCL      = "hcl"
)

type stores struct {
	db        *sql.DB
	tasks     *task.Store
	snapshots *db.Store
}

func openStores(cmd *cobra.Command) (*stores, func(), error) {
	cfg := configFrom(cmd)
	conn, err := db.Open(cmd.Context(), cfg.DB.Path)
	if err != nil {
		return nil, func() {}, err
	}
	s := &stores{
		db:        conn,
		tasks:     task.NewStore(conn),
		snapshots: db.NewStore(conn),
	}
	return s, func() { _ = conn.Close() }, nil
}

// writeEncoded writes v as JSON or YAML. It reports false for other formats.
func writeEncoded(w io.Writer, format string, v any) (bool, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("encode json: %w", err)
		}
		return true, nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, fmt.Errorf("encode yaml: %w", err)
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if strings.EqualFold(format, f) {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
