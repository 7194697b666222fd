package main

import (
	"encoding/json"
	"fmt"

	"llm-chat-client/internal/domain"
	"llm-chat-client/internal/processor"
	"llm-chat-client/internal/types"

	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		parallel int
		asJSON   bool
		viaAgent bool
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one or more prompts and print the replies in order",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts := args
			if len(prompts) == 0 {
				prompts = []string{domain.DefaultPrompt}
			}

			proc, closeFn, err := a.newProcessor(viaAgent)
			if err != nil {
				return err
			}
			defer closeFn()

			var results []processor.Result
			if len(prompts) == 1 {
				resp, err := proc.Process(cmd.Context(), prompts[0])
				results = []processor.Result{{Prompt: prompts[0], Response: resp, Err: err}}
			} else {
				results = proc.InvokeAll(cmd.Context(), prompts, parallel)
			}
			return a.printResults(results, asJSON)
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", processor.DefaultBatchLimit, "Maximum prompts in flight when several are given.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print each reply as a JSON object.")
	cmd.Flags().BoolVar(&viaAgent, "adk", false, "Answer each prompt through a single ADK agent turn.")
	return cmd
}

type askOutput struct {
	Prompt string           `json:"prompt"`
	Reply  *domain.Response `json:"reply,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// printResults writes replies to stdout and failures to stderr, returning the first failure
func (a *app) printResults(results []processor.Result, asJSON bool) error {
	var firstErr error
	for i, r := range results {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}

		if asJSON {
			out := askOutput{Prompt: r.Prompt, Reply: r.Response}
			if r.Err != nil {
				out.Error = types.Describe(r.Err)
			}
			data, err := json.Marshal(out)
			if err != nil {
				return fmt.Errorf("encode reply: %w", err)
			}
			fmt.Fprintln(a.stdout, string(data))
			continue
		}

		if r.Err != nil {
			// The final error line is printed by run
			if len(results) > 1 {
				fmt.Fprintf(a.stderr, "prompt %d: %s\n", i+1, types.Describe(r.Err))
			}
			continue
		}
		fmt.Fprintln(a.stdout, r.Response.Text)
	}
	return firstErr
}
