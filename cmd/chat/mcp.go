package main

import (
	"llm-chat-client/internal/mcpserver"

	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the chat client as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, closeFn, err := a.newProcessor(false)
			if err != nil {
				return err
			}
			defer closeFn()

			return mcpserver.ServeStdio(cmd.Context(), mcpserver.New(proc, version))
		},
	}
}
