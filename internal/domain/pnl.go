package domain

import "fmt"

// Position es la posición agregada de un símbolo, derivada de los trades
// EXECUTED. No se persiste: se recalcula desde el ledger.
type Position struct {
	Symbol    string  // symbolRoot-strike-expiry
	Quantity  float64 // con signo: +BUY, −SELL
	TotalCost float64
	AvgPrice  float64 // TotalCost / Quantity si Quantity ≠ 0, si no 0
}

// PnLReport resume el cash flow de los trades ejecutados.
// El notional es flujo de caja con signo (cost basis), no mark-to-market.
type PnLReport struct {
	TotalTrades   int
	TotalNotional float64
	Positions     map[string]Position
}

// PositionKey construye la clave de posición de un intent.
func PositionKey(symbolRoot string, strike float64, expiry string) string {
	return fmt.Sprintf("%s-%g-%s", symbolRoot, strike, expiry)
}

// ComputePnL agrega los records EXECUTED en un PnLReport.
//
// Por trade, la contribución al notional total es −quantity·limitPrice para
// BUY y +quantity·limitPrice para SELL. Las posiciones acumulan cantidad con
// signo y coste total; el precio medio se recalcula al final.
//
// Los records que no estén en EXECUTED se ignoran: un intent FAILED o
// CANCELLED nunca movió dinero.
func ComputePnL(records []LedgerRecord) PnLReport {
	report := PnLReport{Positions: make(map[string]Position)}

	for _, rec := range records {
		ti := rec.Intent
		if ti.Status != StatusExecuted {
			continue
		}

		key := PositionKey(ti.SymbolRoot, ti.Strike, ti.Expiry)
		pos := report.Positions[key]
		pos.Symbol = key

		notional := ti.Quantity * ti.LimitPrice
		switch ti.Side {
		case SideBuy:
			report.TotalNotional -= notional
			pos.Quantity += ti.Quantity
			pos.TotalCost += notional
		case SideSell:
			report.TotalNotional += notional
			pos.Quantity -= ti.Quantity
			pos.TotalCost -= notional
		default:
			continue
		}

		report.TotalTrades++
		report.Positions[key] = pos
	}

	for key, pos := range report.Positions {
		if pos.Quantity != 0 {
			pos.AvgPrice = pos.TotalCost / pos.Quantity
		} else {
			pos.AvgPrice = 0
		}
		report.Positions[key] = pos
	}

	return report
}
