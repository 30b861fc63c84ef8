package storage

// ledger.go — registro durable de trade intents sobre SQLite.
//
// Estrategia:
//   - `trades`: una fila por TradeIntent, append-only. El id AUTOINCREMENT es
//     el identificador monotónico del record; las filas nunca se borran.
//   - Solo status/transaction_id/notes son mutables, y únicamente vía
//     UpdateStatus. Los estados terminales se protegen: EXECUTED, CANCELLED
//     y FAILED no admiten más transiciones.
//   - Writes serializados: SQLite es single-writer, conexión única + mutex.

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    venue          TEXT NOT NULL,
    market_type    TEXT NOT NULL,
    symbol_root    TEXT NOT NULL,
    strike         REAL NOT NULL,
    expiry         TEXT NOT NULL,
    side           TEXT NOT NULL,
    quantity       REAL NOT NULL,
    limit_price    REAL NOT NULL,
    order_type     TEXT NOT NULL,
    mode           TEXT NOT NULL,
    timestamp      TEXT NOT NULL,
    status         TEXT NOT NULL,
    transaction_id TEXT,
    notes          TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_trades_status    ON trades(status);
`

const defaultQueryLimit = 100

// csvColumns es el set de columnas del export, espejo de la tabla.
var csvColumns = []string{
	"id", "venue", "market_type", "symbol_root", "strike", "expiry",
	"side", "quantity", "limit_price", "order_type", "mode",
	"timestamp", "status", "transaction_id", "notes",
}

// SQLiteLedger implementa ports.Ledger usando SQLite (pure Go, sin CGo).
type SQLiteLedger struct {
	db *sql.DB
	mu sync.Mutex // serializa writes; los readers van por el pool de la conexión
}

var _ ports.Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}

	return &SQLiteLedger{db: db}, nil
}

// RecordTrade persiste el intent tal cual (incluido su status actual) y
// devuelve el id asignado.
func (l *SQLiteLedger) RecordTrade(ctx context.Context, intent domain.TradeIntent) (int64, error) {
	if err := intent.Validate(); err != nil {
		return 0, fmt.Errorf("storage.RecordTrade: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO trades (
			venue, market_type, symbol_root, strike, expiry,
			side, quantity, limit_price, order_type, mode,
			timestamp, status, transaction_id, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		intent.Venue,
		intent.MarketType,
		intent.SymbolRoot,
		intent.Strike,
		intent.Expiry,
		string(intent.Side),
		intent.Quantity,
		intent.LimitPrice,
		intent.OrderType,
		string(intent.Mode),
		intent.Timestamp.UTC().Format(time.RFC3339Nano),
		string(intent.Status),
		intent.TransactionID,
		intent.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("storage.RecordTrade: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage.RecordTrade: last insert id: %w", err)
	}
	return id, nil
}

// UpdateStatus actualiza status, transaction id y notes de un record.
// Un record en estado terminal no admite más transiciones: la versión
// original del ledger no validaba esto y permitía devolver un EXECUTED a
// PENDING; aquí se rechaza con ErrTerminalStatus.
func (l *SQLiteLedger) UpdateStatus(ctx context.Context, id int64, status domain.IntentStatus, transactionID, notes string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.UpdateStatus: begin tx: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM trades WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("storage.UpdateStatus: id %d: %w", id, domain.ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("storage.UpdateStatus: read current status: %w", err)
	}

	if domain.IntentStatus(current).Terminal() {
		return fmt.Errorf("storage.UpdateStatus: id %d is %s: %w", id, current, domain.ErrTerminalStatus)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE trades
		SET status = ?,
		    transaction_id = CASE WHEN ? != '' THEN ? ELSE transaction_id END,
		    notes          = CASE WHEN ? != '' THEN ? ELSE notes END
		WHERE id = ?`,
		string(status),
		transactionID, transactionID,
		notes, notes,
		id,
	); err != nil {
		return fmt.Errorf("storage.UpdateStatus: update id %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.UpdateStatus: commit: %w", err)
	}
	return nil
}

// Trades devuelve los records que cumplen el filtro, más recientes primero.
func (l *SQLiteLedger) Trades(ctx context.Context, filter ports.TradeFilter) ([]domain.LedgerRecord, error) {
	query := `SELECT id, venue, market_type, symbol_root, strike, expiry,
	                 side, quantity, limit_price, order_type, mode,
	                 timestamp, status, transaction_id, notes
	          FROM trades WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Venue != "" {
		query += " AND venue = ?"
		args = append(args, filter.Venue)
	}
	if filter.SymbolRoot != "" {
		query += " AND symbol_root = ?"
		args = append(args, filter.SymbolRoot)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.Trades: query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ExportSnapshot devuelve el dump completo ordenado por id para auditoría.
func (l *SQLiteLedger) ExportSnapshot(ctx context.Context) ([]domain.LedgerRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, venue, market_type, symbol_root, strike, expiry,
		       side, quantity, limit_price, order_type, mode,
		       timestamp, status, transaction_id, notes
		FROM trades ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.ExportSnapshot: query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ExportCSV escribe todos los records al archivo dado, mismas columnas que la tabla.
func (l *SQLiteLedger) ExportCSV(ctx context.Context, path string) error {
	records, err := l.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("storage.ExportCSV: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage.ExportCSV: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return fmt.Errorf("storage.ExportCSV: write header: %w", err)
	}
	for _, rec := range records {
		ti := rec.Intent
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			ti.Venue,
			ti.MarketType,
			ti.SymbolRoot,
			strconv.FormatFloat(ti.Strike, 'g', -1, 64),
			ti.Expiry,
			string(ti.Side),
			strconv.FormatFloat(ti.Quantity, 'g', -1, 64),
			strconv.FormatFloat(ti.LimitPrice, 'g', -1, 64),
			ti.OrderType,
			string(ti.Mode),
			ti.Timestamp.UTC().Format(time.RFC3339Nano),
			string(ti.Status),
			ti.TransactionID,
			ti.Notes,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("storage.ExportCSV: write row %d: %w", rec.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage.ExportCSV: flush: %w", err)
	}
	return nil
}

// PnL agrega los trades EXECUTED en un informe de posiciones y notional.
// Sin LIMIT: el PnL sobre un subconjunto del ledger sería incorrecto.
func (l *SQLiteLedger) PnL(ctx context.Context, symbolRoot string) (domain.PnLReport, error) {
	query := `SELECT id, venue, market_type, symbol_root, strike, expiry,
	                 side, quantity, limit_price, order_type, mode,
	                 timestamp, status, transaction_id, notes
	          FROM trades WHERE status = ?`
	args := []any{string(domain.StatusExecuted)}

	if symbolRoot != "" {
		query += " AND symbol_root = ?"
		args = append(args, symbolRoot)
	}
	query += " ORDER BY id ASC"

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PnLReport{}, fmt.Errorf("storage.PnL: query: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return domain.PnLReport{}, fmt.Errorf("storage.PnL: %w", err)
	}
	return domain.ComputePnL(records), nil
}

// Close cierra la conexión a la base de datos.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// scanRecords convierte las filas de la tabla trades en LedgerRecords.
func scanRecords(rows *sql.Rows) ([]domain.LedgerRecord, error) {
	var records []domain.LedgerRecord
	for rows.Next() {
		var (
			rec           domain.LedgerRecord
			side, mode    string
			status, ts    string
			txnID, notes  sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Intent.Venue,
			&rec.Intent.MarketType,
			&rec.Intent.SymbolRoot,
			&rec.Intent.Strike,
			&rec.Intent.Expiry,
			&side,
			&rec.Intent.Quantity,
			&rec.Intent.LimitPrice,
			&rec.Intent.OrderType,
			&mode,
			&ts,
			&status,
			&txnID,
			&notes,
		); err != nil {
			return nil, fmt.Errorf("storage: scan row: %w", err)
		}
		rec.Intent.Side = domain.TradeSide(side)
		rec.Intent.Mode = domain.ExecutionMode(mode)
		rec.Intent.Status = domain.IntentStatus(status)
		rec.Intent.TransactionID = txnID.String
		rec.Intent.Notes = notes.String
		rec.Intent.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}
