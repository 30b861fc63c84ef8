// Package books mantiene el estado de los orderbooks por mercado a partir de
// snapshots y updates incrementales del feed.
package books

import (
	"sync"
	"time"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

// UpdateCallback se invoca tras aplicar cada mensaje de un mercado suscrito.
type UpdateCallback func(marketID string, book domain.OrderBook)

// subscription es el estado de un mercado suscrito: su book y metadatos.
type subscription struct {
	book       domain.OrderBook
	callback   UpdateCallback
	subscribed time.Time
	lastUpdate time.Time
}

// Store mantiene los books de los mercados suscritos.
//
// El feed escribe desde su único loop de lectura; los loops de señal y
// ejecución leen concurrentemente, así que todo acceso pasa por el mutex.
type Store struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{subs: make(map[string]*subscription)}
}

// Subscribe registra un mercado con book vacío. El primer mensaje que llegue
// para el mercado debe ser un snapshot completo. callback puede ser nil.
func (s *Store) Subscribe(marketID string, callback UpdateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[marketID]; ok {
		return
	}
	s.subs[marketID] = &subscription{
		book:       domain.OrderBook{MarketID: marketID},
		callback:   callback,
		subscribed: time.Now().UTC(),
	}
}

// Unsubscribe elimina la suscripción y su book.
func (s *Store) Unsubscribe(marketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, marketID)
}

// Subscribed devuelve true si el mercado está registrado.
func (s *Store) Subscribed(marketID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subs[marketID]
	return ok
}

// ApplySnapshot reemplaza el book completo de un mercado.
// Mercados no suscritos se ignoran.
func (s *Store) ApplySnapshot(marketID string, bids, asks []domain.BookEntry) {
	s.mu.Lock()
	sub, ok := s.subs[marketID]
	if !ok {
		s.mu.Unlock()
		return
	}
	sub.book.Bids = append([]domain.BookEntry(nil), bids...)
	sub.book.Asks = append([]domain.BookEntry(nil), asks...)
	sub.book.Normalize()
	sub.lastUpdate = time.Now().UTC()
	book, cb := copyBook(sub.book), sub.callback
	s.mu.Unlock()

	if cb != nil {
		cb(marketID, book)
	}
}

// ApplyUpdate aplica la mutación de un nivel. size == 0 elimina el nivel con
// precio coincidente (tolerancia 1e-4); en otro caso reemplaza o inserta y
// reordena el lado. Mercados no suscritos se ignoran.
//
// El feed no trae números de secuencia: tras un reconnect un update viejo
// puede pisar uno más nuevo. Se asume last-write-wins por nivel.
func (s *Store) ApplyUpdate(marketID string, side domain.Side, price, size float64) {
	s.mu.Lock()
	sub, ok := s.subs[marketID]
	if !ok {
		s.mu.Unlock()
		return
	}
	sub.book.ApplyLevel(side, price, size)
	sub.lastUpdate = time.Now().UTC()
	book, cb := copyBook(sub.book), sub.callback
	s.mu.Unlock()

	if cb != nil {
		cb(marketID, book)
	}
}

// copyBook devuelve una copia del book con sus propios slices: el callback
// puede retener el valor sin carreras con el siguiente update bajo el lock.
func copyBook(ob domain.OrderBook) domain.OrderBook {
	ob.Bids = append([]domain.BookEntry(nil), ob.Bids...)
	ob.Asks = append([]domain.BookEntry(nil), ob.Asks...)
	return ob
}

// TopLevels devuelve hasta n niveles por lado del book de un mercado,
// ya ordenados. Slices vacíos si el mercado no está suscrito.
func (s *Store) TopLevels(marketID string, n int) (bids, asks []domain.BookEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[marketID]
	if !ok {
		return nil, nil
	}
	b, a := sub.book.TopLevels(n)
	// Copias: el book se sigue mutando bajo el lock del feed.
	return append([]domain.BookEntry(nil), b...), append([]domain.BookEntry(nil), a...)
}

// VWAP calcula la probabilidad ponderada por liquidez sobre los top n niveles
// del book de un mercado. ok=false si el mercado es desconocido o no hay
// liquidez en ningún lado.
func (s *Store) VWAP(marketID string, n int) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[marketID]
	if !ok {
		return 0, false
	}
	return domain.ComputeVWAP(sub.book, n)
}

// LastUpdate devuelve el timestamp del último mensaje aplicado al mercado.
// Zero value si el mercado es desconocido o aún no recibió mensajes.
func (s *Store) LastUpdate(marketID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[marketID]
	if !ok {
		return time.Time{}
	}
	return sub.lastUpdate
}
