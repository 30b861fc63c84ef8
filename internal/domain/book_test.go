package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBook(bids, asks []BookEntry) OrderBook {
	return OrderBook{MarketID: "0xtest", Bids: bids, Asks: asks}
}

func TestComputeVWAP_BothSides(t *testing.T) {
	ob := makeBook(
		[]BookEntry{{0.50, 100}, {0.49, 200}},
		[]BookEntry{{0.52, 100}, {0.53, 50}},
	)

	vwap, ok := ComputeVWAP(ob, 3)
	require.True(t, ok)

	// bid VWAP = (0.50·100 + 0.49·200)/300 = 0.49333
	// ask VWAP = (0.52·100 + 0.53·50)/150 = 0.52333
	assert.InDelta(t, (0.49333+0.52333)/2, vwap, 0.001)
}

func TestComputeVWAP_OneSidedBook(t *testing.T) {
	// Solo bids: el VWAP es el del lado disponible, no un promedio con 0
	ob := makeBook([]BookEntry{{0.40, 100}}, nil)
	vwap, ok := ComputeVWAP(ob, 3)
	require.True(t, ok)
	assert.InDelta(t, 0.40, vwap, 1e-9)

	ob = makeBook(nil, []BookEntry{{0.60, 50}})
	vwap, ok = ComputeVWAP(ob, 3)
	require.True(t, ok)
	assert.InDelta(t, 0.60, vwap, 1e-9)
}

func TestComputeVWAP_EmptyBook(t *testing.T) {
	// Book vacío = sin valor, nunca probabilidad 0
	_, ok := ComputeVWAP(OrderBook{}, 3)
	assert.False(t, ok)

	// Niveles con size 0 tampoco cuentan
	ob := makeBook([]BookEntry{{0.50, 0}}, []BookEntry{{0.52, 0}})
	_, ok = ComputeVWAP(ob, 3)
	assert.False(t, ok)
}

func TestComputeVWAP_RespectsDepthLimit(t *testing.T) {
	ob := makeBook(
		[]BookEntry{{0.50, 100}, {0.10, 10000}}, // el segundo nivel queda fuera
		[]BookEntry{{0.52, 100}},
	)

	vwap, ok := ComputeVWAP(ob, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.51, vwap, 1e-9)
}

func TestApplyLevel_InsertKeepsOrder(t *testing.T) {
	ob := makeBook(
		[]BookEntry{{0.50, 100}, {0.48, 50}},
		[]BookEntry{{0.52, 100}},
	)

	ob.ApplyLevel(SideBid, 0.49, 75)
	require.Len(t, ob.Bids, 3)
	assert.Equal(t, 0.50, ob.Bids[0].Price)
	assert.Equal(t, 0.49, ob.Bids[1].Price)
	assert.Equal(t, 0.48, ob.Bids[2].Price)

	ob.ApplyLevel(SideAsk, 0.51, 30)
	require.Len(t, ob.Asks, 2)
	assert.Equal(t, 0.51, ob.Asks[0].Price)
	assert.Equal(t, 0.52, ob.Asks[1].Price)
}

func TestApplyLevel_ReplaceWithinTolerance(t *testing.T) {
	ob := makeBook([]BookEntry{{0.50, 100}}, nil)

	// 0.50001 cae dentro de la tolerancia → reemplaza, no inserta
	ob.ApplyLevel(SideBid, 0.50001, 250)
	require.Len(t, ob.Bids, 1)
	assert.Equal(t, 250.0, ob.Bids[0].Size)
}

func TestApplyLevel_SizeZeroRemoves(t *testing.T) {
	ob := makeBook([]BookEntry{{0.50, 100}, {0.49, 50}}, nil)

	ob.ApplyLevel(SideBid, 0.50, 0)
	require.Len(t, ob.Bids, 1)
	assert.Equal(t, 0.49, ob.Bids[0].Price)

	// Eliminar un nivel inexistente es no-op
	ob.ApplyLevel(SideBid, 0.30, 0)
	assert.Len(t, ob.Bids, 1)
}

func TestNormalize_SortsBothSides(t *testing.T) {
	ob := makeBook(
		[]BookEntry{{0.48, 50}, {0.50, 100}, {0.49, 75}},
		[]BookEntry{{0.53, 10}, {0.51, 20}, {0.52, 30}},
	)

	ob.Normalize()

	assert.Equal(t, 0.50, ob.BestBid())
	assert.Equal(t, 0.51, ob.BestAsk())
	assert.InDelta(t, 0.505, ob.Midpoint(), 1e-9)
}

func TestTopLevels_ShortSides(t *testing.T) {
	ob := makeBook([]BookEntry{{0.50, 100}}, nil)

	bids, asks := ob.TopLevels(5)
	assert.Len(t, bids, 1)
	assert.Empty(t, asks)

	bids, asks = ob.TopLevels(0)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestParsePrice(t *testing.T) {
	assert.Equal(t, 0.515, ParsePrice("0.515"))
	assert.Equal(t, 0.0, ParsePrice("garbage"))
}
