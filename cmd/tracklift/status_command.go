package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tracklift/internal/api"
	"tracklift/internal/apiclient"
	"tracklift/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(cmd.Context(), func(client *apiclient.Client, store *queue.Store) error {
				out := newStatusPrinter(cmd.OutOrStdout())
				out.section("Daemon")

				var stats map[string]int
				if client != nil {
					status, err := client.Status(cmd.Context())
					if err != nil {
						return err
					}
					out.line("Running", boolStatus(status.Running), fmt.Sprintf("pid %d", status.PID))
					out.line("Workflow", boolStatus(status.Workflow.Running), "")
					if status.Workflow.LastError != "" {
						out.line("Last error", statusWarn, status.Workflow.LastError)
					}
					if status.Workflow.LastJobID != 0 {
						out.line("Last job", statusInfo, fmt.Sprintf("%d", status.Workflow.LastJobID))
					}
					out.line("Job database", statusInfo, status.JobDBPath)
					out.line("Catalog", statusInfo, status.CatalogDBPath)
					stats = status.Workflow.QueueStats
				} else {
					out.line("Running", statusWarn, "daemon not reachable")
					summary, err := api.NewJobService(store).Stats(cmd.Context())
					if err != nil {
						return err
					}
					stats = summary
				}

				out.blank()
				out.section("Queue")
				for _, status := range queue.AllStatuses() {
					out.line(string(status), statusInfo, fmt.Sprintf("%d", stats[string(status)]))
				}
				return nil
			})
		},
	}
}
