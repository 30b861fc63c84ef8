package ports

import "context"

// Feed es la conexión streaming al venue de market data.
// Los mensajes se aplican al book store desde un único loop de lectura;
// el orden solo está garantizado dentro de una sesión, no entre reconnects.
type Feed interface {
	// Connect abre la sesión de streaming.
	Connect(ctx context.Context) error

	// Subscribe pide updates del book para un mercado.
	Subscribe(ctx context.Context, marketID string) error

	// Unsubscribe deja de recibir updates de un mercado.
	Unsubscribe(ctx context.Context, marketID string) error

	// Listen consume mensajes hasta que el contexto se cancele o la
	// conexión se cierre. Bloqueante: ejecutar en su propia goroutine.
	Listen(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}
