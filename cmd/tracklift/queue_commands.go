package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tracklift/internal/api"
	"tracklift/internal/apiclient"
	"tracklift/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the ingest queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(cmd.Context(), func(client *apiclient.Client, store *queue.Store) error {
				var stats map[string]int
				if client != nil {
					status, err := client.Status(cmd.Context())
					if err != nil {
						return err
					}
					stats = status.Workflow.QueueStats
				} else {
					var err error
					stats, err = api.NewJobService(store).Stats(cmd.Context())
					if err != nil {
						return err
					}
				}

				order := make([]string, 0, len(queue.AllStatuses()))
				for _, status := range queue.AllStatuses() {
					order = append(order, string(status))
				}
				rows := buildQueueStatsRows(stats, order)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]tableColumn{column("Status"), numericColumn("Count")}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ingest jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(cmd.Context(), func(client *apiclient.Client, store *queue.Store) error {
				var jobs []api.Job
				if client != nil {
					var err error
					jobs, err = client.ListJobs(cmd.Context(), listStatuses)
					if err != nil {
						return err
					}
				} else {
					statuses, err := parseStatusFilters(listStatuses)
					if err != nil {
						return err
					}
					items, listErr := store.List(cmd.Context(), statuses...)
					if listErr != nil {
						return listErr
					}
					jobs = api.FromJobs(items)
				}

				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(jobListColumns, buildJobListRows(jobs))
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by job status (repeatable)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue errored jobs, all of them or by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job database: %w", err)
			}
			defer store.Close()

			updated, err := store.Retry(cmd.Context(), ids...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d job(s)\n", updated)
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(clearStatuses)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job database: %w", err)
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Only clear jobs in these statuses (repeatable)")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Inspect the job database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job database: %w", err)
			}
			defer store.Close()

			health := store.Health(cmd.Context())
			out := newStatusPrinter(cmd.OutOrStdout())

			out.section("Job Database")
			out.line("Path", statusInfo, health.DBPath)
			out.line("Schema version", statusInfo, health.SchemaVersion)
			out.line("Jobs table", boolStatus(health.TableExists), "")
			out.line("Integrity", boolStatus(health.IntegrityCheck), "")
			out.line("Total jobs", statusInfo, fmt.Sprintf("%d", health.TotalJobs))
			if health.Error != "" {
				out.line("Error", statusError, health.Error)
			}
			return nil
		},
	}
}

func parseStatusFilters(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		parsed, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, parsed)
	}
	return statuses, nil
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
