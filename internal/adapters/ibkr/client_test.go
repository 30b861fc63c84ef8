package ibkr_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/fxarb/internal/adapters/ibkr"
	"github.com/alejandrodnm/fxarb/internal/domain"
)

const secdefJSON = `[
	{"conid": 101, "symbol": "USCPI", "secType": "OPT", "strike": "3.0", "maturityDate": "20261215", "right": "C"},
	{"conid": 102, "symbol": "USCPI", "secType": "OPT", "strike": "3.0", "maturityDate": "20261215", "right": "P"},
	{"conid": 103, "symbol": "USCPI", "secType": "OPT", "strike": "3.5", "maturityDate": "20261215", "right": "C"}
]`

func TestResolveContract_MatchesStrikeExpiryRight(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iserver/secdef/search", r.URL.Path)
		assert.Equal(t, "USCPI", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(secdefJSON))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")

	c, found, err := client.ResolveContract(context.Background(), "USCPI", 3.0, "20261215", domain.RightYes)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ForecastEx", c.Venue)
	assert.Equal(t, "USCPI", c.SymbolRoot)
	assert.Equal(t, domain.RightYes, c.Right)

	// El No mapea al right "P"
	c, found, err = client.ResolveContract(context.Background(), "USCPI", 3.0, "20261215", domain.RightNo)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.RightNo, c.Right)
}

func TestResolveContract_NotListedIsNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(secdefJSON))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")

	// Strike que el venue no lista
	_, found, err := client.ResolveContract(context.Background(), "USCPI", 4.0, "20261215", domain.RightYes)
	require.NoError(t, err)
	assert.False(t, found)

	// Expiry que no existe
	_, found, err = client.ResolveContract(context.Background(), "USCPI", 3.0, "20270101", domain.RightYes)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetQuote_TwoSided(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iserver/marketdata/snapshot", r.URL.Path)
		w.Write([]byte(`[{"conid": 101, "84": "0.46", "86": "0.48"}]`))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")
	contract := domain.Contract{SymbolRoot: "USCPI", Strike: 3.0, Expiry: "20261215", Right: domain.RightYes}

	quote, ok, err := client.GetQuote(context.Background(), contract, 2*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.46, quote.Bid)
	assert.Equal(t, 0.48, quote.Ask)
	assert.InDelta(t, 0.47, quote.Midpoint(), 1e-9)
}

func TestGetQuote_TimesOutWithoutTwoSidedQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Solo bid: nunca llega a dos lados
		w.Write([]byte(`[{"conid": 101, "84": "0.46", "86": ""}]`))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")
	contract := domain.Contract{SymbolRoot: "USCPI", Strike: 3.0, Expiry: "20261215", Right: domain.RightYes}

	_, ok, err := client.GetQuote(context.Background(), contract, 100*time.Millisecond)
	require.NoError(t, err) // "no disponible" no es un error
	assert.False(t, ok)
}

func TestPlaceOrder_Accepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iserver/account/DU12345/orders", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		orders := payload["orders"].([]any)
		order := orders[0].(map[string]any)
		assert.Equal(t, "BUY", order["side"])
		assert.Equal(t, "LMT", order["orderType"])
		assert.Equal(t, "DAY", order["tif"])

		w.Write([]byte(`[{"order_id": "987654", "order_status": "Submitted"}]`))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")
	contract := domain.Contract{SymbolRoot: "USCPI", Strike: 3.0, Expiry: "20261215", Right: domain.RightYes}

	txnID, err := client.PlaceOrder(context.Background(), contract, domain.SideBuy, 10, domain.OrderTypeLimit, 0.47)
	require.NoError(t, err)
	assert.Equal(t, "987654", txnID)
}

func TestPlaceOrder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"order_id": "", "message": "insufficient funds"}]`))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")
	contract := domain.Contract{SymbolRoot: "USCPI", Strike: 3.0, Expiry: "20261215", Right: domain.RightYes}

	_, err := client.PlaceOrder(context.Background(), contract, domain.SideBuy, 10, domain.OrderTypeLimit, 0.47)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(secdefJSON))
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")

	_, found, err := client.ResolveContract(context.Background(), "USCPI", 3.0, "20261215", domain.RightYes)
	require.NoError(t, err)
	assert.True(t, found)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestClient_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := ibkr.NewClient(srv.URL, "ForecastEx", "DU12345")

	_, _, err := client.ResolveContract(context.Background(), "USCPI", 3.0, "20261215", domain.RightYes)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
