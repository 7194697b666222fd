package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"llm-chat-client/internal/types"

	"github.com/spf13/cobra"
)

const promptPreviewLen = 48

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exchanges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return types.NewConfigurationError("limit", "must be positive")
			}

			store, err := a.openStorage()
			if err != nil {
				return err
			}
			if store == nil {
				return types.NewConfigurationError("storage.driver", "history is disabled, set it to sqlite")
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), a.storageTimeout())
			defer cancel()

			records, err := store.ListRecentExchanges(ctx, limit)
			if err != nil {
				return fmt.Errorf("list exchanges: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				for _, r := range records {
					if err := enc.Encode(r); err != nil {
						return fmt.Errorf("encode exchange: %w", err)
					}
				}
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tMODEL\tMS\tPROMPT")
			for _, r := range records {
				status := r.Status
				if r.ErrorKind != "" {
					status += "/" + r.ErrorKind
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), status, r.Model, r.DurationMs, preview(r.Prompt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of exchanges to show.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per exchange.")
	return cmd
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > promptPreviewLen {
		return string(r[:promptPreviewLen-3]) + "..."
	}
	return s
}
