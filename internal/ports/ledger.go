package ports

import (
	"context"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

// TradeFilter restringe una consulta al ledger. Campos vacíos no filtran.
type TradeFilter struct {
	Status     domain.IntentStatus
	Venue      string
	SymbolRoot string
	Limit      int // máximo de filas; <= 0 usa el default del storage
}

// Ledger es el registro durable y append-only de trade intents.
type Ledger interface {
	// RecordTrade persiste el intent tal cual y devuelve su id monotónico.
	RecordTrade(ctx context.Context, intent domain.TradeIntent) (int64, error)

	// UpdateStatus actualiza solo los campos mutables de un record: status,
	// transaction id y notes. Rechaza transiciones desde estados terminales.
	UpdateStatus(ctx context.Context, id int64, status domain.IntentStatus, transactionID, notes string) error

	// Trades devuelve los records que cumplen el filtro, más recientes primero.
	Trades(ctx context.Context, filter TradeFilter) ([]domain.LedgerRecord, error)

	// ExportSnapshot devuelve el dump completo y ordenado para auditoría.
	ExportSnapshot(ctx context.Context) ([]domain.LedgerRecord, error)

	// ExportCSV escribe todos los records al path dado, mismas columnas que la tabla.
	ExportCSV(ctx context.Context, path string) error

	// PnL agrega los trades EXECUTED. symbolRoot vacío = todos los símbolos.
	PnL(ctx context.Context, symbolRoot string) (domain.PnLReport, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
