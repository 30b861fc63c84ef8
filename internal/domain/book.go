package domain

import (
	"math"
	"sort"
	"strconv"
)

// priceTolerance es la tolerancia para considerar dos precios como el mismo nivel.
const priceTolerance = 1e-4

// Side identifica el lado del book al que pertenece un nivel.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// OrderBook representa el libro de órdenes de un mercado.
type OrderBook struct {
	MarketID string
	Bids     []BookEntry // ordenados mayor a menor precio
	Asks     []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

// BestBid devuelve el mejor precio de compra (mayor bid).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestBid() float64 {
	if len(ob.Bids) == 0 {
		return 0
	}
	return ob.Bids[0].Price
}

// BestAsk devuelve el mejor precio de venta (menor ask).
// Devuelve 0 si el book está vacío.
func (ob OrderBook) BestAsk() float64 {
	if len(ob.Asks) == 0 {
		return 0
	}
	return ob.Asks[0].Price
}

// Midpoint devuelve el punto medio entre best bid y best ask.
func (ob OrderBook) Midpoint() float64 {
	bid := ob.BestBid()
	ask := ob.BestAsk()
	if bid == 0 || ask == 0 {
		return 0
	}
	return (bid + ask) / 2
}

// TopLevels devuelve hasta n niveles por lado, ya ordenados canónicamente.
func (ob OrderBook) TopLevels(n int) (bids, asks []BookEntry) {
	if n < 0 {
		n = 0
	}
	bids = ob.Bids[:min(n, len(ob.Bids))]
	asks = ob.Asks[:min(n, len(ob.Asks))]
	return bids, asks
}

// ApplyLevel aplica una mutación de un nivel del book.
//
// Si size == 0 elimina el nivel cuyo precio coincide dentro de la tolerancia
// (no-op si no existe). En otro caso reemplaza el nivel existente o inserta
// uno nuevo y reordena el lado para mantener el orden canónico.
//
// No hay números de secuencia en el feed: ante entregas duplicadas o fuera de
// orden tras un reconnect se aplica last-write-wins por nivel de precio.
func (ob *OrderBook) ApplyLevel(side Side, price, size float64) {
	var levels *[]BookEntry
	switch side {
	case SideBid:
		levels = &ob.Bids
	case SideAsk:
		levels = &ob.Asks
	default:
		return
	}

	idx := -1
	for i, lvl := range *levels {
		if math.Abs(lvl.Price-price) < priceTolerance {
			idx = i
			break
		}
	}

	if size == 0 {
		if idx >= 0 {
			*levels = append((*levels)[:idx], (*levels)[idx+1:]...)
		}
		return
	}

	if idx >= 0 {
		(*levels)[idx] = BookEntry{Price: price, Size: size}
		return
	}

	*levels = append(*levels, BookEntry{Price: price, Size: size})
	sortSide(*levels, side)
}

// Normalize reordena ambos lados al orden canónico. Usado al aplicar snapshots
// completos, donde el feed no garantiza el orden de los arrays.
func (ob *OrderBook) Normalize() {
	sortSide(ob.Bids, SideBid)
	sortSide(ob.Asks, SideAsk)
}

func sortSide(levels []BookEntry, side Side) {
	if side == SideBid {
		sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
		return
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
}

// ComputeVWAP calcula la probabilidad ponderada por liquidez sobre los top n
// niveles de cada lado: Σ(price·size)/Σsize por lado, promedio de ambos lados
// si los dos tienen liquidez, el lado disponible si solo hay uno.
//
// ok=false significa "sin valor": ningún lado tiene liquidez. Nunca se
// devuelve 0 como señal — un book vacío no es una probabilidad del 0%.
func ComputeVWAP(ob OrderBook, n int) (vwap float64, ok bool) {
	bids, asks := ob.TopLevels(n)

	bidVWAP, bidSize := sideVWAP(bids)
	askVWAP, askSize := sideVWAP(asks)

	switch {
	case bidSize > 0 && askSize > 0:
		return (bidVWAP + askVWAP) / 2, true
	case bidSize > 0:
		return bidVWAP, true
	case askSize > 0:
		return askVWAP, true
	default:
		return 0, false
	}
}

// sideVWAP devuelve el precio medio ponderado por tamaño de un lado
// y el tamaño total. VWAP = 0 si el tamaño total es 0.
func sideVWAP(levels []BookEntry) (vwap, totalSize float64) {
	var value float64
	for _, lvl := range levels {
		value += lvl.Price * lvl.Size
		totalSize += lvl.Size
	}
	if totalSize == 0 {
		return 0, 0
	}
	return value / totalSize, totalSize
}

// ParsePrice convierte un string de precio a float64.
// Usado en el mapping del feed.
func ParsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
