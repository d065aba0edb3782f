package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/kasir/internal/api"
	"github.com/roach88/kasir/internal/cart"
	"github.com/roach88/kasir/internal/checkout"
	"github.com/roach88/kasir/internal/connectivity"
	"github.com/roach88/kasir/internal/engine"
	"github.com/roach88/kasir/internal/notify"
	"github.com/roach88/kasir/internal/settings"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Demo bool

	// Ready, when set, receives the listener address once the server is
	// accepting requests (for testing).
	Ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the register API with background sync",
		Long: `Run the register HTTP API.

The register posts sales to the remote database while it is reachable and
queues them locally while it is not. A connectivity probe watches the remote;
every return to online, every successful offline save, and every sync
interval replays the queue.

With --demo the remote is an in-memory database seeded with a few products.

Example:
  kasir serve --config kasir.yaml
  kasir serve --demo --addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Demo, "demo", false, "use an in-memory remote seeded with demo data")
	cmd.Flags().String("addr", "", "HTTP listen address (overrides http.addr)")
	_ = rootOpts.settings().BindPFlag("http.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	slog.Info("local queue ready", "path", st.Path())

	var b *backend
	if opts.Demo {
		b = demoRemote()
		slog.Info("using in-memory demo remote")
	} else {
		b, err = connectRemote(ctx, cfg)
		if err != nil {
			return err
		}
	}
	defer func() {
		if closeErr := b.close(); closeErr != nil {
			slog.Error("error closing remote", "error", closeErr)
		}
	}()

	loc := notify.NewLocalizer(cfg.Locale)
	feed := notify.NewFeed(100)
	notifier := notify.Multi(feed, notify.Log{})

	src := connectivitySource(ctx, cfg, b)
	c := cart.New(settings.LoadTaxRate(ctx, b))
	poster := checkout.NewPoster(b)

	eng := engine.New(st, poster, src,
		engine.WithInterval(cfg.Sync.Interval),
		engine.WithNotifier(notifier, loc),
	)
	mon := connectivity.NewMonitor(src, st, eng)
	mon.Init(ctx)
	mon.OnTransition(func(online bool) {
		if online {
			notifier.Notify(loc.BackOnline(mon.Pending()))
			return
		}
		notifier.Notify(loc.WentOffline())
	})
	eng.OnPass(func(ctx context.Context, _ engine.Report) { mon.RefreshPending(ctx) })

	committer := checkout.NewCommitter(c, poster, st, mon,
		checkout.WithSyncTrigger(eng),
		checkout.WithNotifier(notifier, loc),
	)

	handler := api.New(api.Deps{
		Cart:      c,
		Committer: committer,
		Sync:      eng,
		Status:    mon,
		Queue:     st,
		Feed:      feed,
		Notifier:  notifier,
		Localizer: loc,
		CashierID: cfg.Cashier.ID,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return src.Run(gctx) })
	g.Go(func() error { return mon.Run(gctx) })
	g.Go(func() error { return eng.Run(gctx) })
	g.Go(func() error { return listen(gctx, srv, opts.Ready) })

	slog.Info("register started",
		"addr", cfg.HTTP.Addr,
		"online", mon.Online(),
		"pending", mon.Pending(),
		"tax_rate", c.TaxRate().String(),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Register listening on %s\n", cfg.HTTP.Addr)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	err = g.Wait()
	mon.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "register stopped", err)
	}

	slog.Info("register stopped gracefully")
	return nil
}

// listen serves until ctx is done, then shuts down.
func listen(ctx context.Context, srv *http.Server, ready func(string)) error {
	errCh := make(chan error, 1)
	go func() {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			errCh <- err
			return
		}
		if ready != nil {
			ready(ln.Addr().String())
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return ctx.Err()
}
