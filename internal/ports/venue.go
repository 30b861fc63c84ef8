package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/fxarb/internal/domain"
)

// VenueAdapter abstrae el venue de ejecución (resolución de contratos,
// precios y envío de órdenes).
type VenueAdapter interface {
	// ResolveContract busca el contrato que corresponde a los parámetros dados.
	// found=false si el venue no lista ese contrato; no es un error.
	ResolveContract(ctx context.Context, symbolRoot string, strike float64, expiry string, right domain.ContractRight) (c domain.Contract, found bool, err error)

	// GetQuote espera hasta timeout una cotización de dos lados para el
	// contrato, haciendo polling a intervalo fijo. ok=false si no llegó a
	// tiempo — se trata como "no disponible", no como error.
	GetQuote(ctx context.Context, contract domain.Contract, timeout time.Duration) (q domain.Quote, ok bool, err error)

	// PlaceOrder envía una orden límite y devuelve el transaction id asignado
	// por el venue. Un rechazo o excepción del adapter es un error.
	PlaceOrder(ctx context.Context, contract domain.Contract, side domain.TradeSide, quantity float64, orderType string, limitPrice float64) (txnID string, err error)
}
