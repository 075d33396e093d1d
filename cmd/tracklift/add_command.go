package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var objectKey string
	var sizeMB float64

	cmd := &cobra.Command{
		Use:   "add <file-url>",
		Short: "Queue an uploaded archive for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.dialClient(cmd.Context())
			if err != nil {
				return err
			}
			job, err := client.Enqueue(cmd.Context(), args[0], objectKey, sizeMB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %d for %s\n", job.ID, jobArchiveLabel(*job))
			return nil
		},
	}

	cmd.Flags().StringVar(&objectKey, "key", "", "Object key of the archive inside the bucket")
	cmd.Flags().Float64Var(&sizeMB, "size-mb", 0, "Archive size in megabytes")
	return cmd
}
