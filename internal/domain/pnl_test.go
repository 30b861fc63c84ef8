package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecord(id int64, side TradeSide, qty, px float64, status IntentStatus) LedgerRecord {
	return LedgerRecord{
		ID: id,
		Intent: TradeIntent{
			Venue:      "ForecastEx",
			MarketType: "Binary Option",
			SymbolRoot: "USCPI",
			Strike:     3.0,
			Expiry:     "20261215",
			Side:       side,
			Quantity:   qty,
			LimitPrice: px,
			OrderType:  OrderTypeLimit,
			Mode:       ModePaper,
			Timestamp:  time.Now().UTC(),
			Status:     status,
		},
	}
}

func TestComputePnL_BuyThenPartialSell(t *testing.T) {
	records := []LedgerRecord{
		makeRecord(1, SideBuy, 10, 0.52, StatusExecuted),
		makeRecord(2, SideSell, 5, 0.58, StatusExecuted),
	}

	report := ComputePnL(records)

	assert.Equal(t, 2, report.TotalTrades)
	// −10·0.52 + 5·0.58 = −5.20 + 2.90 = −2.30
	assert.InDelta(t, -2.30, report.TotalNotional, 1e-9)

	key := PositionKey("USCPI", 3.0, "20261215")
	pos, ok := report.Positions[key]
	require.True(t, ok)
	assert.Equal(t, 5.0, pos.Quantity)
	assert.InDelta(t, 2.30, pos.TotalCost, 1e-9)
	assert.InDelta(t, 0.46, pos.AvgPrice, 1e-9)
}

func TestComputePnL_IgnoresNonExecuted(t *testing.T) {
	records := []LedgerRecord{
		makeRecord(1, SideBuy, 10, 0.52, StatusExecuted),
		makeRecord(2, SideBuy, 10, 0.52, StatusPending),
		makeRecord(3, SideBuy, 10, 0.52, StatusFailed),
		makeRecord(4, SideBuy, 10, 0.52, StatusCancelled),
	}

	report := ComputePnL(records)

	assert.Equal(t, 1, report.TotalTrades)
	assert.InDelta(t, -5.20, report.TotalNotional, 1e-9)
}

func TestComputePnL_FlatPositionHasZeroAvg(t *testing.T) {
	records := []LedgerRecord{
		makeRecord(1, SideBuy, 10, 0.50, StatusExecuted),
		makeRecord(2, SideSell, 10, 0.60, StatusExecuted),
	}

	report := ComputePnL(records)

	key := PositionKey("USCPI", 3.0, "20261215")
	pos := report.Positions[key]
	assert.Equal(t, 0.0, pos.Quantity)
	assert.Equal(t, 0.0, pos.AvgPrice) // cantidad 0 → sin división
	assert.InDelta(t, 1.0, report.TotalNotional, 1e-9)
}

func TestComputePnL_Empty(t *testing.T) {
	report := ComputePnL(nil)
	assert.Zero(t, report.TotalTrades)
	assert.Zero(t, report.TotalNotional)
	assert.Empty(t, report.Positions)
}

func TestPositionKey_FormatsStrike(t *testing.T) {
	assert.Equal(t, "USCPI-3-20261215", PositionKey("USCPI", 3.0, "20261215"))
	assert.Equal(t, "FED-4.25-20260318", PositionKey("FED", 4.25, "20260318"))
}
