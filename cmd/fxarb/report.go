package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/fxarb/internal/adapters/notify"
	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// runReport imprime los trades registrados y el PnL, o exporta el ledger a
// CSV, sin arrancar el feed ni el venue.
func runReport(ctx context.Context, ledger ports.Ledger, notifier *notify.Console, status, exportPath string) {
	if exportPath != "" {
		if err := ledger.ExportCSV(ctx, exportPath); err != nil {
			slog.Error("CSV export failed", "err", err, "path", exportPath)
			os.Exit(1)
		}
		slog.Info("ledger exported", "path", exportPath)
		return
	}

	records, err := ledger.Trades(ctx, ports.TradeFilter{Status: domain.IntentStatus(status)})
	if err != nil {
		slog.Error("failed to query trades", "err", err)
		os.Exit(1)
	}
	if err := notifier.NotifyTrades(ctx, records); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	report, err := ledger.PnL(ctx, "")
	if err != nil {
		slog.Error("failed to compute PnL", "err", err)
		os.Exit(1)
	}
	if err := notifier.NotifyPnL(ctx, report); err != nil {
		slog.Warn("notifier error", "err", err)
	}
}
