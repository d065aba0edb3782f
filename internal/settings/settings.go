// Package settings reads register configuration kept on the remote service.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/roach88/kasir/internal/remote"
)

// TaxPercentageKey is the settings row holding the tax rate in percent.
const TaxPercentageKey = "tax_percentage"

// LoadTaxRate reads the tax percentage (10 means 10%).
//
// A missing, unreadable or negative value yields zero and a logged warning:
// the register keeps selling without tax rather than refusing to start.
func LoadTaxRate(ctx context.Context, svc remote.Service) decimal.Decimal {
	rate, err := taxRate(ctx, svc)
	if err != nil {
		slog.Warn("tax rate unavailable, using 0", "error", err)
		return decimal.Zero
	}
	return rate
}

func taxRate(ctx context.Context, svc remote.Service) (decimal.Decimal, error) {
	rows, err := svc.Select(ctx, remote.Settings, remote.Where("key", TaxPercentageKey).First())
	if err != nil {
		return decimal.Zero, fmt.Errorf("read %s: %w", TaxPercentageKey, err)
	}
	if len(rows) == 0 {
		return decimal.Zero, fmt.Errorf("setting %s not found", TaxPercentageKey)
	}
	rate, err := rows[0].Decimal("value")
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", TaxPercentageKey, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s is negative: %s", TaxPercentageKey, rate)
	}
	return rate, nil
}
