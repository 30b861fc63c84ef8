package domain

import (
	"fmt"
	"time"
)

// TradeSide es el lado de un trade.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// IntentStatus es el estado de un TradeIntent en su ciclo de vida.
// PENDING es el estado inicial; el resto son terminales.
type IntentStatus string

const (
	StatusPending   IntentStatus = "PENDING"
	StatusExecuted  IntentStatus = "EXECUTED"
	StatusCancelled IntentStatus = "CANCELLED"
	StatusFailed    IntentStatus = "FAILED"
)

// Terminal devuelve true si el estado no admite más transiciones.
func (s IntentStatus) Terminal() bool {
	switch s {
	case StatusExecuted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// ExecutionMode indica si el intent se ejecuta en simulación o contra el venue real.
type ExecutionMode string

const (
	ModePaper ExecutionMode = "paper"
	ModeLive  ExecutionMode = "live"
)

// OrderTypeLimit es el único tipo de orden soportado.
const OrderTypeLimit = "LMT"

// TradeIntent es un trade propuesto, a la espera de ejecución o registrando
// su resultado. Inmutable una vez creado salvo status, transaction id y notes,
// que el coordinator actualiza exactamente una vez en la transición terminal.
type TradeIntent struct {
	Venue         string
	MarketType    string // p.ej. "Binary Option"
	SymbolRoot    string // p.ej. "USCPI"
	Strike        float64
	Expiry        string // formato YYYYMMDD
	Side          TradeSide
	Quantity      float64
	LimitPrice    float64
	OrderType     string // siempre LMT
	Mode          ExecutionMode
	Timestamp     time.Time
	Status        IntentStatus
	TransactionID string
	Notes         string
}

// NewTradeIntent crea un intent PENDING con timestamp actual y orden límite.
// Valida los campos antes de devolverlo.
func NewTradeIntent(venue, marketType, symbolRoot string, strike float64, expiry string, side TradeSide, quantity, limitPrice float64, mode ExecutionMode) (TradeIntent, error) {
	ti := TradeIntent{
		Venue:      venue,
		MarketType: marketType,
		SymbolRoot: symbolRoot,
		Strike:     strike,
		Expiry:     expiry,
		Side:       side,
		Quantity:   quantity,
		LimitPrice: limitPrice,
		OrderType:  OrderTypeLimit,
		Mode:       mode,
		Timestamp:  time.Now().UTC(),
		Status:     StatusPending,
	}
	if err := ti.Validate(); err != nil {
		return TradeIntent{}, err
	}
	return ti, nil
}

// Validate comprueba que los campos del intent son coherentes.
// Un intent inválido es un error fatal de construcción, no de ejecución.
func (ti TradeIntent) Validate() error {
	if ti.Venue == "" {
		return fmt.Errorf("domain.TradeIntent: venue is required")
	}
	if ti.SymbolRoot == "" {
		return fmt.Errorf("domain.TradeIntent: symbol root is required")
	}
	if ti.Side != SideBuy && ti.Side != SideSell {
		return fmt.Errorf("domain.TradeIntent: invalid side %q", ti.Side)
	}
	if ti.Mode != ModePaper && ti.Mode != ModeLive {
		return fmt.Errorf("domain.TradeIntent: invalid mode %q", ti.Mode)
	}
	if ti.Quantity <= 0 {
		return fmt.Errorf("domain.TradeIntent: quantity must be positive, got %v", ti.Quantity)
	}
	if ti.LimitPrice <= 0 || ti.LimitPrice > 1 {
		return fmt.Errorf("domain.TradeIntent: limit price must be in (0, 1], got %v", ti.LimitPrice)
	}
	if len(ti.Expiry) != 8 {
		return fmt.Errorf("domain.TradeIntent: expiry must be YYYYMMDD, got %q", ti.Expiry)
	}
	return nil
}

// LedgerRecord es la fila durable del ledger: un TradeIntent más su id
// monotónico asignado. Append-only, nunca se borra.
type LedgerRecord struct {
	ID     int64
	Intent TradeIntent
}
