// Package ibkr implementa ports.VenueAdapter sobre el Client Portal Web API
// de Interactive Brokers, que lista los contratos binarios de ForecastEx.
package ibkr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/fxarb/internal/domain"
	"github.com/alejandrodnm/fxarb/internal/ports"
)

const (
	// El gateway local tolera poco: 10 req/s es el límite documentado,
	// nos quedamos por debajo.
	requestsPerSec = 5

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond

	// quotePollInterval es el intervalo del polling de cotizaciones.
	// Ventana acotada: se repite hasta el timeout y se desiste sin error.
	quotePollInterval = 500 * time.Millisecond
)

// Client es el HTTP client del venue con rate limiting y retries.
type Client struct {
	http      *http.Client
	baseURL   string
	venueName string
	accountID string
	limiter   *rate.Limiter
}

var _ ports.VenueAdapter = (*Client)(nil)

// NewClient crea un Client para el gateway dado.
func NewClient(baseURL, venueName, accountID string) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		venueName: venueName,
		accountID: accountID,
		limiter:   rate.NewLimiter(requestsPerSec, 5),
	}
}

// --- respuestas del API ---

type secdefResult struct {
	ConID       int64  `json:"conid"`
	Symbol      string `json:"symbol"`
	SecType     string `json:"secType"`
	Description string `json:"description"`
	Strike      string `json:"strike"`
	MaturityDay string `json:"maturityDate"` // YYYYMMDD
	Right       string `json:"right"`        // "C" (Yes) | "P" (No)
}

type snapshotResult struct {
	ConID int64  `json:"conid"`
	Bid   string `json:"84"` // field 84: bid price
	Ask   string `json:"86"` // field 86: ask price
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"order_status"`
	Message string `json:"message"`
}

// ResolveContract busca el contrato binario que corresponde a los parámetros.
// found=false si el venue no lista ese strike/expiry/right; no es un error.
func (c *Client) ResolveContract(ctx context.Context, symbolRoot string, strike float64, expiry string, right domain.ContractRight) (domain.Contract, bool, error) {
	q := url.Values{}
	q.Set("symbol", symbolRoot)
	q.Set("secType", "OPT")

	var results []secdefResult
	if err := c.get(ctx, "/iserver/secdef/search?"+q.Encode(), &results); err != nil {
		return domain.Contract{}, false, fmt.Errorf("ibkr.ResolveContract: search %s: %w", symbolRoot, err)
	}

	wantRight := "C"
	if right == domain.RightNo {
		wantRight = "P"
	}

	for _, r := range results {
		if r.MaturityDay != expiry || r.Right != wantRight {
			continue
		}
		if math.Abs(domain.ParsePrice(r.Strike)-strike) > 1e-9 {
			continue
		}
		return domain.Contract{
			Venue:      c.venueName,
			SymbolRoot: r.Symbol,
			Strike:     strike,
			Expiry:     expiry,
			Right:      right,
		}, true, nil
	}

	slog.Debug("contract not found on venue",
		"symbol_root", symbolRoot, "strike", strike, "expiry", expiry, "right", right)
	return domain.Contract{}, false, nil
}

// GetQuote espera hasta timeout una cotización de dos lados, consultando el
// snapshot a intervalo fijo. ok=false si no llega a tiempo: "no disponible",
// sin escalada ni retry más allá de la ventana.
func (c *Client) GetQuote(ctx context.Context, contract domain.Contract, timeout time.Duration) (domain.Quote, bool, error) {
	q := url.Values{}
	q.Set("symbol", contract.SymbolRoot)
	q.Set("strike", fmt.Sprintf("%g", contract.Strike))
	q.Set("expiry", contract.Expiry)
	q.Set("fields", "84,86")

	deadline := time.Now().Add(timeout)
	for {
		var snaps []snapshotResult
		if err := c.get(ctx, "/iserver/marketdata/snapshot?"+q.Encode(), &snaps); err != nil {
			return domain.Quote{}, false, fmt.Errorf("ibkr.GetQuote: snapshot: %w", err)
		}

		if len(snaps) > 0 {
			quote := domain.Quote{
				Bid: domain.ParsePrice(snaps[0].Bid),
				Ask: domain.ParsePrice(snaps[0].Ask),
			}
			if quote.TwoSided() {
				return quote, true, nil
			}
		}

		if time.Now().After(deadline) {
			slog.Debug("no two-sided quote within window",
				"symbol_root", contract.SymbolRoot, "timeout", timeout)
			return domain.Quote{}, false, nil
		}

		select {
		case <-ctx.Done():
			return domain.Quote{}, false, ctx.Err()
		case <-time.After(quotePollInterval):
		}
	}
}

// PlaceOrder envía una orden límite. Un rechazo del venue es un error con el
// mensaje del rechazo; el caller decide qué registrar en el ledger.
func (c *Client) PlaceOrder(ctx context.Context, contract domain.Contract, side domain.TradeSide, quantity float64, orderType string, limitPrice float64) (string, error) {
	body := map[string]any{
		"symbol":    contract.SymbolRoot,
		"strike":    contract.Strike,
		"expiry":    contract.Expiry,
		"right":     string(contract.Right),
		"side":      string(side),
		"quantity":  quantity,
		"orderType": orderType,
		"price":     limitPrice,
		"tif":       "DAY",
	}

	var resp []orderResponse
	path := fmt.Sprintf("/iserver/account/%s/orders", c.accountID)
	if err := c.post(ctx, path, map[string]any{"orders": []any{body}}, &resp); err != nil {
		return "", fmt.Errorf("ibkr.PlaceOrder: %w", err)
	}

	if len(resp) == 0 {
		return "", fmt.Errorf("ibkr.PlaceOrder: empty response from venue")
	}
	if resp[0].OrderID == "" {
		return "", fmt.Errorf("ibkr.PlaceOrder: rejected: %s", resp[0].Message)
	}
	return resp[0].OrderID, nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// post hace un POST JSON con rate limiting y retries.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial.
// Errores de conectividad se devuelven al caller tras agotar los retries:
// el core no reintenta más allá de esto, el loop exterior decide.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
