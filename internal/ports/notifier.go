package ports

import (
	"context"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

// Notifier presenta al usuario la actividad del bot.
type Notifier interface {
	// NotifySignal muestra la señal calculada para un mercado en un ciclo.
	NotifySignal(ctx context.Context, description string, probability float64, boosted float64) error

	// NotifyTrades muestra los trades registrados, más recientes primero.
	NotifyTrades(ctx context.Context, records []domain.LedgerRecord) error

	// NotifyPnL muestra el resumen de PnL con sus posiciones.
	NotifyPnL(ctx context.Context, report domain.PnLReport) error
}
