package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// QueueEntry describes one queued sale.
type QueueEntry struct {
	LocalID   int64           `json:"local_id"`
	ClientRef string          `json:"client_ref"`
	Cashier   string          `json:"cashier"`
	Total     decimal.Decimal `json:"total_amount"`
	Items     int             `json:"items"`
	QueuedAt  time.Time       `json:"queued_at"`
	Error     string          `json:"error,omitempty"`
}

// QueueList is the output of queue list.
type QueueList []QueueEntry

// WriteText prints one line per queued sale.
func (l QueueList) WriteText(w io.Writer) {
	if len(l) == 0 {
		fmt.Fprintln(w, "Queue is empty.")
		return
	}
	for _, e := range l {
		if e.Error != "" {
			fmt.Fprintf(w, "%d  ✗ unreadable: %s\n", e.LocalID, e.Error)
			continue
		}
		fmt.Fprintf(w, "%d  %s  %s  %d item(s)  %s  %s\n",
			e.LocalID, e.ClientRef, e.Cashier, e.Items, e.Total.StringFixed(2), e.QueuedAt.Format(time.RFC3339))
	}
}

// RemoveResult is the output of queue remove.
type RemoveResult struct {
	Removed int64 `json:"removed"`
}

// WriteText confirms the removal.
func (r RemoveResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "Removed queued sale %d\n", r.Removed)
}

// NewQueueCommand creates the queue command group.
func NewQueueCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and repair the local queue",
	}
	cmd.AddCommand(newQueueListCommand(rootOpts))
	cmd.AddCommand(newQueueRemoveCommand(rootOpts))
	return cmd
}

func newQueueListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List queued sales, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(opts, cmd)
		},
	}
}

func newQueueRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <local-id>",
		Short: "Remove a queued sale",
		Long: `Remove a queued sale by its local id.

Use this for entries that can never sync, such as a payload that no longer
decodes. The sale is gone for good.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueRemove(opts, cmd, args[0])
		},
	}
}

func runQueueList(opts *RootOptions, cmd *cobra.Command) error {
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

	items, err := st.GetAll(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read queue", err)
	}

	entries := make(QueueList, 0, len(items))
	for _, p := range items {
		e := QueueEntry{
			LocalID:   p.LocalID,
			ClientRef: p.Payload.ClientRef,
			Cashier:   p.Payload.UserID,
			Total:     p.Payload.TotalAmount,
			Items:     len(p.Payload.Items),
			QueuedAt:  p.Timestamp,
		}
		if p.Err != nil {
			e.Error = p.Err.Error()
		}
		entries = append(entries, e)
	}

	return opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(entries)
}

func runQueueRemove(opts *RootOptions, cmd *cobra.Command, arg string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	localID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid local id %q", arg), err)
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	if err := st.Remove(ctx, localID); err != nil {
		return WrapExitError(ExitCommandError, "failed to remove queued sale", err)
	}

	return opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(RemoveResult{Removed: localID})
}
