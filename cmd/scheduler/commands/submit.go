package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultSubmitTimeout bounds how long submit waits for a worker's reply
const DefaultSubmitTimeout = 30 * time.Second

func newSubmitCmd(deps Dependencies, debug *bool) *cobra.Command {
	var (
		flags   inputFlags
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit [REQUEST_JSON]",
		Short: "Build a schedule on a worker",
		Long: "Publishes the request as a job on RabbitMQ, waits for a worker to reply and " +
			"writes the resulting schedule to stdout.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd, *debug)
			defer func() { _ = log.Sync() }()

			if timeout <= 0 {
				return fmt.Errorf("--timeout must be positive, got %s", timeout)
			}

			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireRabbitMQ(); err != nil {
				return err
			}

			req, err := flags.readRequest(cmd, args)
			if err != nil {
				return err
			}
			// Pin the submitter's date so the worker's clock and zone cannot shift it
			if req.StartDate == nil {
				today := scheduler.Today(deps.Clock)
				req.StartDate = &today
			}

			caller, err := deps.Dial(cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := caller.Close(); err != nil {
					log.Warn("failed_to_close_queue", zap.Error(err))
				}
			}()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			reply, err := caller.Call(ctx, req)
			if err != nil {
				return err
			}
			if reply.Error != "" {
				return errors.New(reply.Error)
			}
			if reply.Result == nil {
				return fmt.Errorf("worker reply for job %s has no result", reply.JobID)
			}
			log.Debug("schedule_reply_received", zap.String("job_id", reply.JobID.String()))

			return writeJSON(cmd.OutOrStdout(), reply.Result, flags.pretty)
		},
	}
	flags.register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", DefaultSubmitTimeout, "How long to wait for a worker")
	return cmd
}
