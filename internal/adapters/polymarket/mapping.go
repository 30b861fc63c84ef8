package polymarket

import (
	"github.com/alejandrodnm/fxarb/internal/domain"
)

// wsCommand es un comando subscribe/unsubscribe hacia el feed.
type wsCommand struct {
	Type   string `json:"type"`
	Market string `json:"market"`
}

// feedMessage es el envelope de los mensajes del feed.
//
// Snapshot:  {type: "snapshot", market, bids: [[price, size]...], asks: [...]}
// Update:    {type: "update", market, side: "bid"|"ask", price, size}
// Trade:     {type: "trade", market, price, size}
//
// Precios y tamaños llegan como strings, igual que en la API REST.
type feedMessage struct {
	Type   string      `json:"type"`
	Market string      `json:"market"`
	Side   string      `json:"side"`
	Price  string      `json:"price"`
	Size   string      `json:"size"`
	Bids   [][2]string `json:"bids"`
	Asks   [][2]string `json:"asks"`
}

// mapSnapshot convierte los arrays del snapshot en niveles del dominio.
// Niveles con size 0 se descartan: un nivel sin tamaño no existe en el book.
func mapSnapshot(msg feedMessage) (bids, asks []domain.BookEntry) {
	bids = mapLevels(msg.Bids)
	asks = mapLevels(msg.Asks)
	return bids, asks
}

func mapLevels(raw [][2]string) []domain.BookEntry {
	levels := make([]domain.BookEntry, 0, len(raw))
	for _, pair := range raw {
		size := domain.ParsePrice(pair[1])
		if size == 0 {
			continue
		}
		levels = append(levels, domain.BookEntry{
			Price: domain.ParsePrice(pair[0]),
			Size:  size,
		})
	}
	return levels
}

// mapUpdate extrae la mutación de un nivel. ok=false si el side no es válido.
func mapUpdate(msg feedMessage) (side domain.Side, price, size float64, ok bool) {
	switch msg.Side {
	case "bid", "BID", "buy":
		side = domain.SideBid
	case "ask", "ASK", "sell":
		side = domain.SideAsk
	default:
		return "", 0, 0, false
	}
	return side, domain.ParsePrice(msg.Price), domain.ParsePrice(msg.Size), true
}
