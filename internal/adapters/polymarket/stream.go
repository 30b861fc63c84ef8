package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/fxarb/internal/books"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

const (
	defaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws"

	// writeWait es el tiempo máximo para escribir un mensaje al peer.
	writeWait = 10 * time.Second

	// pongWait es el tiempo máximo de espera del siguiente pong.
	pongWait = 60 * time.Second

	// pingPeriod debe ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 15 * time.Second
)

// Stream es el cliente WebSocket del CLOB de Polymarket. Mantiene la sesión,
// envía subscribe/unsubscribe y alimenta el book store desde un único loop
// de lectura — el orden de los mensajes solo está garantizado dentro de la
// sesión, no entre reconnects.
type Stream struct {
	url   string
	store *books.Store

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

var _ ports.Feed = (*Stream)(nil)

// NewStream crea un Stream que alimenta el store dado.
// Si url está vacío usa el endpoint de producción.
func NewStream(url string, store *books.Store) *Stream {
	if url == "" {
		url = defaultWSURL
	}
	return &Stream{url: url, store: store}
}

// Connect abre la conexión WebSocket.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("polymarket.Connect: stream closed")
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("polymarket.Connect: dial %s: %w", s.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	s.conn = conn
	slog.Info("connected to market data feed", "url", s.url)
	return nil
}

// Subscribe registra el mercado en el store y pide sus updates al feed.
// El primer mensaje que el venue envía tras suscribir es un snapshot completo.
func (s *Stream) Subscribe(ctx context.Context, marketID string) error {
	s.store.Subscribe(marketID, nil)
	if err := s.send(wsCommand{Type: "subscribe", Market: marketID}); err != nil {
		return fmt.Errorf("polymarket.Subscribe: %s: %w", marketID, err)
	}
	slog.Debug("subscribed to market", "market", marketID)
	return nil
}

// Unsubscribe deja de recibir updates y destruye el book local.
func (s *Stream) Unsubscribe(ctx context.Context, marketID string) error {
	if err := s.send(wsCommand{Type: "unsubscribe", Market: marketID}); err != nil {
		return fmt.Errorf("polymarket.Unsubscribe: %s: %w", marketID, err)
	}
	s.store.Unsubscribe(marketID)
	return nil
}

// Listen consume mensajes hasta que el contexto se cancele o la conexión se
// cierre. Único consumidor: los mensajes se aplican al store en orden de
// llegada. Bloqueante.
func (s *Stream) Listen(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("polymarket.Listen: not connected")
	}

	go s.pingLoop(ctx, conn)

	// ReadMessage no observa el contexto: cerrar la conexión al cancelar
	// desbloquea la lectura en vez de esperar al read deadline.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("polymarket.Listen: read: %w", err)
		}
		s.handleMessage(raw)
	}
}

// Close cierra la conexión.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// handleMessage decodifica y aplica un mensaje del feed al store.
// Un mensaje malformado se loguea y se descarta; nunca tumba el loop.
func (s *Stream) handleMessage(raw []byte) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Warn("failed to parse feed message", "err", err)
		return
	}
	if msg.Market == "" || !s.store.Subscribed(msg.Market) {
		return
	}

	switch msg.Type {
	case "snapshot", "orderbook":
		bids, asks := mapSnapshot(msg)
		s.store.ApplySnapshot(msg.Market, bids, asks)
	case "update":
		side, price, size, ok := mapUpdate(msg)
		if !ok {
			return
		}
		s.store.ApplyUpdate(msg.Market, side, price, size)
	case "trade":
		// Los trades no mutan el book; solo interesan los niveles.
	default:
		slog.Debug("unknown feed message type", "type", msg.Type)
	}
}

// pingLoop mantiene viva la conexión mientras el contexto siga activo.
func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// send serializa la escritura de comandos sobre la conexión.
func (s *Stream) send(cmd wsCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(cmd)
}
