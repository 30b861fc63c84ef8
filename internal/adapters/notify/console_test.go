package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

func makeRecord(id int64, side domain.TradeSide, status domain.IntentStatus) domain.LedgerRecord {
	return domain.LedgerRecord{
		ID: id,
		Intent: domain.TradeIntent{
			Venue:      "ForecastEx",
			SymbolRoot: "USCPI",
			Strike:     3.0,
			Expiry:     "20261215",
			Side:       side,
			Quantity:   10,
			LimitPrice: 0.52,
			Mode:       domain.ModePaper,
			Status:     status,
		},
	}
}

func TestNotifySignal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifySignal(context.Background(), "US CPI above 3%", 0.50, 0.50))
	assert.Contains(t, buf.String(), "US CPI above 3%: 50.0%")
	assert.NotContains(t, buf.String(), "sentiment")

	buf.Reset()
	require.NoError(t, c.NotifySignal(context.Background(), "US CPI above 3%", 0.50, 0.55))
	assert.Contains(t, buf.String(), "50.0% -> 55.0% (sentiment)")
}

func TestNotifyTrades_Table(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	records := []domain.LedgerRecord{
		makeRecord(2, domain.SideSell, domain.StatusExecuted),
		makeRecord(1, domain.SideBuy, domain.StatusFailed),
	}
	require.NoError(t, c.NotifyTrades(context.Background(), records))

	out := buf.String()
	assert.Contains(t, out, "USCPI")
	assert.Contains(t, out, "EXECUTED")
	assert.Contains(t, out, "FAILED")
}

func TestNotifyTrades_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, true)

	require.NoError(t, c.NotifyTrades(context.Background(), []domain.LedgerRecord{
		makeRecord(1, domain.SideBuy, domain.StatusExecuted),
	}))
	assert.Contains(t, buf.String(), "#1 paper BUY 10 USCPI @ 0.5200 [EXECUTED]")
}

func TestNotifyTrades_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyTrades(context.Background(), nil))
	assert.Contains(t, buf.String(), "no trades recorded")
}

func TestNotifyPnL(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	report := domain.PnLReport{
		TotalTrades:   2,
		TotalNotional: -2.30,
		Positions: map[string]domain.Position{
			"USCPI-3-20261215": {Symbol: "USCPI-3-20261215", Quantity: 5, TotalCost: 2.30, AvgPrice: 0.46},
		},
	}
	require.NoError(t, c.NotifyPnL(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "Executed trades: 2")
	assert.Contains(t, out, "$-2.30")
	assert.Contains(t, out, "USCPI-3-20261215")
}

func TestNotifyPnL_NoPositions(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf, false)

	require.NoError(t, c.NotifyPnL(context.Background(), domain.PnLReport{}))
	assert.Contains(t, buf.String(), "No open positions")
}
