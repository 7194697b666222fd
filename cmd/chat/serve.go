package main

import (
	"log/slog"

	"llm-chat-client/internal/llm"
	"llm-chat-client/internal/processor"
	"llm-chat-client/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port   int
		noPing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat client over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			llmClient, err := a.newClient()
			if err != nil {
				return err
			}

			// Verify LLM connection
			if pinger, ok := llmClient.(llm.Pinger); ok && !noPing {
				if err := pinger.Ping(cmd.Context()); err != nil {
					slog.Error("llm health check failed", "error", err)
					return err
				}
			}

			store, closeFn, err := a.openHistory()
			if err != nil {
				return err
			}
			// Storage is closed after the server drains
			defer closeFn()

			proc := processor.New(llmClient, store, processor.WithSaveTimeout(a.cfg.Storage.Timeout))
			return server.New(a.cfg.Server, proc, store).Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port and PORT).")
	cmd.Flags().BoolVar(&noPing, "no-ping", false, "Skip the provider connectivity check at startup.")
	return cmd
}
