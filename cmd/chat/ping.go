package main

import (
	"fmt"

	"llm-chat-client/internal/llm"

	"github.com/spf13/cobra"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the provider is reachable with the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			llmClient, err := a.newClient()
			if err != nil {
				return err
			}

			pinger, ok := llmClient.(llm.Pinger)
			if !ok {
				return fmt.Errorf("%s does not support ping", llmClient.Name())
			}
			if err := pinger.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "ok %s\n", llmClient.Name())
			return nil
		},
	}
}
