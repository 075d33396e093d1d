package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracklift/internal/api"
	"tracklift/internal/apiclient"
	"tracklift/internal/queue"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for one ingest job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			return ctx.withJobs(cmd.Context(), func(client *apiclient.Client, store *queue.Store) error {
				var job *api.Job
				if client != nil {
					var err error
					job, err = client.DescribeJob(cmd.Context(), id)
					if err != nil {
						return err
					}
				} else {
					stored, getErr := store.GetByID(cmd.Context(), id)
					if getErr != nil {
						return getErr
					}
					if stored != nil {
						converted := api.FromJob(stored)
						job = &converted
					}
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Job %d\n", job.ID)
				fmt.Fprintf(stdout, "  Archive:   %s\n", jobArchiveLabel(*job))
				fmt.Fprintf(stdout, "  URL:       %s\n", job.ArchiveURL)
				if job.SizeMB > 0 {
					fmt.Fprintf(stdout, "  Size:      %.2f MB\n", job.SizeMB)
				}
				fmt.Fprintf(stdout, "  Status:    %s\n", job.Status)
				if job.Phase != "" {
					fmt.Fprintf(stdout, "  Phase:     %s\n", job.Phase)
				}
				fmt.Fprintf(stdout, "  Created:   %d track(s), %d skipped\n", job.CreatedCount, job.SkippedCount)
				if job.UploadMbps != nil {
					fmt.Fprintf(stdout, "  Upload:    %.2f Mbit/s\n", *job.UploadMbps)
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(stdout, "  Error:     %s\n", job.ErrorMessage)
				}
				if job.CreatedAt != "" {
					fmt.Fprintf(stdout, "  Queued:    %s (%s)\n", job.CreatedAt, relativeTime(job.CreatedAt))
				}
				if job.StartedAt != "" {
					fmt.Fprintf(stdout, "  Started:   %s\n", job.StartedAt)
				}
				if job.FinishedAt != "" {
					fmt.Fprintf(stdout, "  Finished:  %s\n", job.FinishedAt)
				}
				return nil
			})
		},
	}
}
