package commands

import (
	"fmt"

	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(deps Dependencies, debug *bool) *cobra.Command {
	var flags inputFlags

	cmd := &cobra.Command{
		Use:   "run [REQUEST_JSON]",
		Short: "Build a schedule locally",
		Long: "Reads a schedule request from the argument, --input or stdin and writes the " +
			"resulting schedule to stdout.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd, *debug)
			defer func() { _ = log.Sync() }()

			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			req, err := flags.readRequest(cmd, args)
			if err != nil {
				return err
			}

			s, err := scheduler.New(log, cfg.SchedulerOptions()...)
			if err != nil {
				return err
			}

			result, err := s.Run(req, deps.Clock)
			if err != nil {
				return err
			}
			log.Debug("schedule_written", zap.Int("days", len(result.Schedule)))

			return writeJSON(cmd.OutOrStdout(), result, flags.pretty)
		},
	}
	flags.register(cmd)
	return cmd
}
