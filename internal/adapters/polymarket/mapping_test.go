package polymarket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/fxarb/internal/books"
	"github.com/alejandrodnm/fxarb/internal/domain"
)

func TestMapSnapshot_DropsZeroSizeLevels(t *testing.T) {
	msg := feedMessage{
		Type:   "snapshot",
		Market: "0xcpi",
		Bids:   [][2]string{{"0.50", "100"}, {"0.49", "0"}},
		Asks:   [][2]string{{"0.52", "80"}},
	}

	bids, asks := mapSnapshot(msg)
	require.Len(t, bids, 1)
	assert.Equal(t, domain.BookEntry{Price: 0.50, Size: 100}, bids[0])
	require.Len(t, asks, 1)
	assert.Equal(t, domain.BookEntry{Price: 0.52, Size: 80}, asks[0])
}

func TestMapUpdate_SideVariants(t *testing.T) {
	for _, raw := range []string{"bid", "BID", "buy"} {
		side, price, size, ok := mapUpdate(feedMessage{Side: raw, Price: "0.51", Size: "25"})
		require.True(t, ok, raw)
		assert.Equal(t, domain.SideBid, side)
		assert.Equal(t, 0.51, price)
		assert.Equal(t, 25.0, size)
	}
	for _, raw := range []string{"ask", "ASK", "sell"} {
		side, _, _, ok := mapUpdate(feedMessage{Side: raw, Price: "0.51", Size: "25"})
		require.True(t, ok, raw)
		assert.Equal(t, domain.SideAsk, side)
	}

	_, _, _, ok := mapUpdate(feedMessage{Side: "mid", Price: "0.51", Size: "25"})
	assert.False(t, ok)
}

func TestHandleMessage_FeedsStore(t *testing.T) {
	store := books.NewStore()
	store.Subscribe("0xcpi", nil)
	s := NewStream("", store)

	s.handleMessage([]byte(`{
		"type": "snapshot",
		"market": "0xcpi",
		"bids": [["0.50", "100"], ["0.49", "200"]],
		"asks": [["0.52", "100"]]
	}`))

	vwap, ok := store.VWAP("0xcpi", 3)
	require.True(t, ok)
	assert.InDelta(t, (0.49333+0.52)/2, vwap, 0.001)

	// Un update size 0 elimina el nivel
	s.handleMessage([]byte(`{"type": "update", "market": "0xcpi", "side": "bid", "price": "0.50", "size": "0"}`))
	bids, _ := store.TopLevels("0xcpi", 3)
	require.Len(t, bids, 1)
	assert.Equal(t, 0.49, bids[0].Price)
}

func TestHandleMessage_IgnoresUnknownAndMalformed(t *testing.T) {
	store := books.NewStore()
	store.Subscribe("0xcpi", nil)
	s := NewStream("", store)

	// Mercado no suscrito, trade, tipo desconocido y JSON roto: todos no-op
	s.handleMessage([]byte(`{"type": "snapshot", "market": "0xother", "bids": [["0.9", "1"]]}`))
	s.handleMessage([]byte(`{"type": "trade", "market": "0xcpi", "price": "0.50", "size": "10"}`))
	s.handleMessage([]byte(`{"type": "heartbeat", "market": "0xcpi"}`))
	s.handleMessage([]byte(`{not json`))

	_, ok := store.VWAP("0xcpi", 3)
	assert.False(t, ok)
}
