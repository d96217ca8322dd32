package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/venuedesk/venuedesk/jobs"
)

// JobsCLI wraps manual management helpers for the background queue.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// TriggerCleanup enqueues an immediate idempotency key purge.
func (c *JobsCLI) TriggerCleanup(ctx context.Context, retentionHours int) (string, error) {
	task, err := jobs.NewIdempotencyCleanupTask(retentionHours)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

// ResendNotification re-queues the notification e-mail of a lead.
func (c *JobsCLI) ResendNotification(ctx context.Context, leadID string) (string, error) {
	task, err := jobs.NewLeadNotifyTask(leadID)
	if err != nil {
		return "", err
	}
	return c.enqueue(ctx, task)
}

func (c *JobsCLI) enqueue(ctx context.Context, task *asynq.Task) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("jobs cli: client not configured")
	}
	info, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueue reports the default queue counters.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

func newJobsCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs.",
	}

	withQueue := func(run func(cmd *cobra.Command, q JobQueue, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if deps.Jobs == nil {
				return errMissingDependency
			}
			q, err := deps.Jobs()
			if err != nil {
				return err
			}
			defer q.Close()
			return run(cmd, q, args)
		}
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print the default queue counters.",
		Args:  cobra.NoArgs,
		RunE: withQueue(func(cmd *cobra.Command, q JobQueue, _ []string) error {
			s, err := q.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), s)
		}),
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge idempotency keys now.",
		Args:  cobra.NoArgs,
		RunE: withQueue(func(cmd *cobra.Command, q JobQueue, _ []string) error {
			hours, _ := cmd.Flags().GetInt("retention-hours")
			id, err := q.TriggerCleanup(cmd.Context(), hours)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", id)
			return nil
		}),
	}
	cleanup.Flags().Int("retention-hours", 0, "Keep keys younger than this many hours (0 uses the worker default).")

	notify := &cobra.Command{
		Use:   "notify <lead-id>",
		Short: "Send the notification e-mail of a lead again.",
		Args:  cobra.ExactArgs(1),
		RunE: withQueue(func(cmd *cobra.Command, q JobQueue, args []string) error {
			id, err := q.ResendNotification(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s\n", id)
			return nil
		}),
	}

	cmd.AddCommand(stats, cleanup, notify)
	return cmd
}
