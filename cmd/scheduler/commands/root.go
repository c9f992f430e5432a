// Package commands implements the scheduler command line.
package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ScheduleCaller submits a request to a worker and waits for its reply
type ScheduleCaller interface {
	Call(ctx context.Context, req *models.ScheduleRequest) (*queue.JobReply, error)
	Close() error
}

// Dependencies are the collaborators commands reach outside the process for
type Dependencies struct {
	Clock      scheduler.Clock
	LoadConfig func() (*config.Config, error)
	// Dial connects to the broker named by cfg
	Dial func(cfg *config.Config, log *zap.Logger) (ScheduleCaller, error)
}

// DefaultDependencies reads the wall clock, loads the environment and dials RabbitMQ
func DefaultDependencies() Dependencies {
	return Dependencies{
		Clock:      scheduler.SystemClock{},
		LoadConfig: config.Load,
		Dial: func(cfg *config.Config, log *zap.Logger) (ScheduleCaller, error) {
			return queue.NewRabbitMQQueue(cfg.RabbitMQURL,
				queue.WithQueueName(cfg.ScheduleQueue),
				queue.WithLogger(log),
			)
		},
	}
}

// Execute runs the command line with args and returns the process exit code.
// Any failure is written to stderr as {"error": "..."}.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return ExecuteWith(DefaultDependencies(), args, stdin, stdout, stderr)
}

// ExecuteWith is Execute with explicit dependencies
func ExecuteWith(deps Dependencies, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCmd(deps)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(context.Background()); err != nil {
		writeError(stderr, err)
		return 1
	}
	return 0
}

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd(deps Dependencies) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Plan tasks into daily time slots",
		Long: "Distributes tasks across days before their deadlines under a daily hour budget " +
			"and assigns each day's work to clock times.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log scheduling decisions to stderr")

	rootCmd.AddCommand(newRunCmd(deps, &debug))
	rootCmd.AddCommand(newSubmitCmd(deps, &debug))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newLogger(cmd *cobra.Command, debug bool) *zap.Logger {
	return logger.NewCLILogger(debug, cmd.ErrOrStderr())
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeError(w io.Writer, err error) {
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
