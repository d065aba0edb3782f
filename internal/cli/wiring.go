package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/kasir/internal/config"
	"github.com/roach88/kasir/internal/connectivity"
	"github.com/roach88/kasir/internal/remote"
	"github.com/roach88/kasir/internal/remote/memory"
	"github.com/roach88/kasir/internal/remote/sqlremote"
	"github.com/roach88/kasir/internal/settings"
	"github.com/roach88/kasir/internal/store"
)

// backend is the remote service plus the means to check and release it.
type backend struct {
	remote.Service
	ping  func(ctx context.Context) bool
	close func() error
}

// openStore opens the local queue.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Local.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open local queue", err)
	}
	return st, nil
}

// connectRemote prepares the remote service without requiring it to be
// reachable. For sqlite the schema is created when the file is reachable.
func connectRemote(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Remote.DSN == "" {
		return nil, NewExitError(ExitCommandError, "remote.dsn is not configured")
	}
	svc, err := sqlremote.Connect(cfg.Remote.Driver, cfg.Remote.DSN, cfg.Remote.Timeout)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure remote", err)
	}
	if cfg.Remote.Driver == sqlremote.DriverSQLite {
		if err := svc.EnsureSchema(ctx); err != nil {
			slog.Warn("remote schema not ensured", "error", err)
		}
	}
	return &backend{
		Service: svc,
		ping:    func(ctx context.Context) bool { return svc.Ping(ctx) == nil },
		close:   svc.Close,
	}, nil
}

// demoRemote is an in-memory remote seeded with a tax setting and a few
// products' stock rows.
func demoRemote() *backend {
	svc := memory.New()
	svc.Seed(remote.Settings, remote.Record{"key": settings.TaxPercentageKey, "value": "11"})
	for _, p := range []struct {
		id  string
		qty int64
	}{{"kopi-susu", 40}, {"teh-manis", 25}, {"roti-bakar", 12}} {
		svc.Seed(remote.Stock, remote.Record{
			"product_id":          p.id,
			"quantity":            p.qty,
			"low_stock_threshold": int64(10),
		})
	}
	return &backend{
		Service: svc,
		ping:    func(context.Context) bool { return svc.Reachable() },
		close:   func() error { return nil },
	}
}

// connectivitySource picks the reachability source. A configured probe
// address wins; otherwise the remote itself is pinged.
func connectivitySource(ctx context.Context, cfg *config.Config, b *backend) *connectivity.ProbeSource {
	var checker connectivity.Checker = connectivity.CheckFunc(b.ping)
	if cfg.Connectivity.ProbeAddr != "" {
		checker = connectivity.Prober{Addr: cfg.Connectivity.ProbeAddr, Timeout: cfg.Connectivity.ProbeTimeout}
	}
	return connectivity.NewProbeSource(ctx, checker, cfg.Connectivity.ProbeInterval)
}
