package main

import (
	"github.com/metalagman/orgarhythm/internal/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve analysis tools over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			log.Debug().Msg("mcp: serving on stdio")
			return mcp.NewServer(s.tasks, configFrom(cmd).GraphOptions(), version).Run(cmd.Context())
		},
	}
}
