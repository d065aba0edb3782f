package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/kasir/internal/checkout"
	"github.com/roach88/kasir/internal/connectivity"
	"github.com/roach88/kasir/internal/engine"
)

// SyncResult is the output of the sync command.
type SyncResult struct {
	Attempted int      `json:"attempted"`
	Synced    int      `json:"synced"`
	Failed    int      `json:"failed"`
	Remaining int      `json:"remaining"`
	Errors    []string `json:"errors,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Replay queued sales to the remote database once",
		Long: `Replay every queued sale to the remote database, oldest first.

Sales that post are removed from the queue; failures stay queued for the
next pass.

Exit codes:
  0 - Every queued sale was synced
  1 - Remote unreachable or some sales failed
  2 - Command error (bad config, queue not readable, etc.)

Example:
  kasir sync --config kasir.yaml
  kasir sync --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}
	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
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
	b, err := connectRemote(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	f := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
	reachable := b.ping(ctx)
	f.VerboseLog("Remote %s reachable: %v", cfg.Remote.Driver, reachable)

	online := connectivity.NewSignal(reachable)
	eng := engine.New(st, checkout.NewPoster(b), online)

	report, err := eng.SyncNow(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "remote unreachable", err)
	}

	remaining, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count queue", err)
	}

	result := SyncResult{
		Attempted: report.Attempted,
		Synced:    report.Synced,
		Failed:    report.Failed,
		Remaining: remaining,
	}
	for _, e := range report.Errors {
		result.Errors = append(result.Errors, e.Error())
	}
	f.VerboseLog("Pass %d: %d attempted, %d remaining", report.Pass, report.Attempted, remaining)

	if !report.Complete {
		return f.Error("E_SYNC_PARTIAL", "some queued sales failed to sync", result)
	}
	return f.Success(result)
}

// WriteText prints the pass summary.
func (r SyncResult) WriteText(w io.Writer) {
	if r.Attempted == 0 {
		fmt.Fprintln(w, "Queue is empty.")
		return
	}

	fmt.Fprintf(w, "Synced %d of %d queued sale(s)\n", r.Synced, r.Attempted)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", e)
	}
	if r.Failed == 0 {
		fmt.Fprintln(w, "✓ Queue drained")
		return
	}
	fmt.Fprintf(w, "✗ %d sale(s) still queued\n", r.Remaining)
}
