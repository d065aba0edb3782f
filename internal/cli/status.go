package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// StatusResult is the output of the status command.
type StatusResult struct {
	QueuePath string `json:"queue_path"`
	Pending   int    `json:"pending"`
	Online    bool   `json:"online"`
	Driver    string `json:"driver"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue size and remote reachability",
		Long: `Report how many sales wait in the local queue and whether the remote
database answers a ping.

Example:
  kasir status --config kasir.yaml
  kasir status --db ./kasir-queue.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	pending, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count queue", err)
	}

	result := StatusResult{QueuePath: st.Path(), Pending: pending, Driver: cfg.Remote.Driver}
	if cfg.Remote.DSN != "" {
		b, err := connectRemote(ctx, cfg)
		if err != nil {
			return err
		}
		result.Online = b.ping(ctx)
		_ = b.close()
	}

	return opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(result)
}

// WriteText prints the queue and remote summary.
func (r StatusResult) WriteText(w io.Writer) {
	state := "offline"
	if r.Online {
		state = "online"
	}
	fmt.Fprintf(w, "Queue:   %s\n", r.QueuePath)
	fmt.Fprintf(w, "Pending: %d\n", r.Pending)
	fmt.Fprintf(w, "Remote:  %s (%s)\n", state, r.Driver)
}
