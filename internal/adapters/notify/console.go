package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

// Console implementa ports.Notifier escribiendo tablas a stdout.
type Console struct {
	out     io.Writer
	compact bool
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole crea un notificador que escribe a stdout.
// compact=true imprime las señales en una línea en lugar de tablas.
func NewConsole(compact bool) *Console {
	return &Console{out: os.Stdout, compact: compact}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, compact bool) *Console {
	return &Console{out: w, compact: compact}
}

// NotifySignal imprime la señal de un mercado en un ciclo.
func (c *Console) NotifySignal(_ context.Context, description string, probability, boosted float64) error {
	now := time.Now().Format("15:04:05")
	if boosted != probability {
		fmt.Fprintf(c.out, "[%s] %s: %.1f%% -> %.1f%% (sentiment)\n",
			now, description, probability*100, boosted*100)
		return nil
	}
	fmt.Fprintf(c.out, "[%s] %s: %.1f%%\n", now, description, probability*100)
	return nil
}

// NotifyTrades imprime los trades registrados, más recientes primero.
func (c *Console) NotifyTrades(_ context.Context, records []domain.LedgerRecord) error {
	if len(records) == 0 {
		fmt.Fprintf(c.out, "[%s] no trades recorded\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.compact {
		for _, rec := range records {
			ti := rec.Intent
			fmt.Fprintf(c.out, "#%d %s %s %g %s @ %.4f [%s]\n",
				rec.ID, ti.Mode, ti.Side, ti.Quantity, ti.SymbolRoot, ti.LimitPrice, ti.Status)
		}
		return nil
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Venue", "Symbol", "Strike", "Expiry", "Side", "Qty", "Limit", "Mode", "Status", "Txn")

	for _, rec := range records {
		ti := rec.Intent
		table.Append(
			fmt.Sprintf("%d", rec.ID),
			ti.Venue,
			ti.SymbolRoot,
			fmt.Sprintf("%g", ti.Strike),
			ti.Expiry,
			string(ti.Side),
			fmt.Sprintf("%g", ti.Quantity),
			fmt.Sprintf("%.4f", ti.LimitPrice),
			string(ti.Mode),
			string(ti.Status),
			ti.TransactionID,
		)
	}

	table.Render()
	return nil
}

// NotifyPnL imprime el resumen de PnL con sus posiciones.
func (c *Console) NotifyPnL(_ context.Context, report domain.PnLReport) error {
	fmt.Fprintf(c.out, "\n  --- PNL SUMMARY ---\n")
	fmt.Fprintf(c.out, "  Executed trades: %d\n", report.TotalTrades)
	fmt.Fprintf(c.out, "  Total notional:  $%.2f\n", report.TotalNotional)

	if len(report.Positions) == 0 {
		fmt.Fprintf(c.out, "  No open positions.\n")
		return nil
	}

	// Orden estable para output reproducible
	keys := make([]string, 0, len(report.Positions))
	for k := range report.Positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(c.out)
	table.Header("Symbol", "Qty", "Cost", "AvgPx")

	for _, k := range keys {
		pos := report.Positions[k]
		table.Append(
			pos.Symbol,
			fmt.Sprintf("%+g", pos.Quantity),
			fmt.Sprintf("$%.2f", pos.TotalCost),
			fmt.Sprintf("%.4f", pos.AvgPrice),
		)
	}

	table.Render()
	return nil
}
