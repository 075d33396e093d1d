package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process <id>",
		Short: "Run one queued or errored job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}

			client, err := ctx.dialClient(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := client.Process(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			if !resp.Started {
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Job not started")
				}
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processing job %d\n", ids[0])
			return nil
		},
	}
}
