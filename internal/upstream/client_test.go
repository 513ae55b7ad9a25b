package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cryptodash/marketdata/internal/model"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with options", func(t *testing.T) {
		hc := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com",
			WithAPIKey("test-key"),
			WithHTTPClient(hc),
		)
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want test-key", c.apiKey)
		}
		if c.httpClient != hc {
			t.Error("custom HTTP client not set")
		}
	})
}

func TestClient_MarketChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin/market_chart" {
			t.Errorf("path = %q, want /coins/bitcoin/market_chart", r.URL.Path)
		}
		if got := r.URL.Query().Get("vs_currency"); got != "usd" {
			t.Errorf("vs_currency = %q, want usd", got)
		}
		if got := r.URL.Query().Get("days"); got != "7" {
			t.Errorf("days = %q, want 7", got)
		}

		resp := map[string]any{
			"prices":        [][2]float64{{1700000000000, 35000.5}, {1700003600000, 35100.0}},
			"total_volumes": [][2]float64{{1700000000000, 1.2e9}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	chart, err := c.MarketChart(context.Background(), ChartRequest{
		CoinID:     "bitcoin",
		VsCurrency: "usd",
		Days:       7,
	})
	if err != nil {
		t.Fatalf("MarketChart failed: %v", err)
	}

	if len(chart.Prices) != 2 {
		t.Fatalf("len(Prices) = %d, want 2", len(chart.Prices))
	}
	if chart.Prices[0].Price != 35000.5 {
		t.Errorf("Prices[0].Price = %v, want 35000.5", chart.Prices[0].Price)
	}
	want := time.UnixMilli(1700000000000).UTC()
	if !chart.Prices[0].Time.Equal(want) {
		t.Errorf("Prices[0].Time = %v, want %v", chart.Prices[0].Time, want)
	}
	if len(chart.Volumes) != 1 || chart.Volumes[0].Volume != 1.2e9 {
		t.Errorf("Volumes = %+v, want one 1.2e9 sample", chart.Volumes)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.MarketData(context.Background(), "BTC")
	if err == nil {
		t.Fatal("expected error for 503 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
	if !apiErr.IsRetryable() {
		t.Error("503 should be retryable")
	}
}

func TestClient_NoInternalRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if _, err := c.TradeHistory(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	// Exactly one request: the client must leave retry policy to callers.
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestClient_PlaceOrder(t *testing.T) {
	orderID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("%s %s, want POST /orders", r.Method, r.URL.Path)
		}
		var req model.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Symbol != "BTC" || req.Side != "buy" {
			t.Errorf("req = %+v", req)
		}

		json.NewEncoder(w).Encode(model.Order{
			ID:       orderID,
			Symbol:   req.Symbol,
			Side:     req.Side,
			Quantity: req.Quantity,
			Status:   "open",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	order, err := c.PlaceOrder(context.Background(), model.OrderRequest{
		Symbol:   "BTC",
		Side:     "buy",
		Type:     "market",
		Quantity: 0.5,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if order.ID != orderID {
		t.Errorf("ID = %v, want %v", order.ID, orderID)
	}
	if order.Status != "open" {
		t.Errorf("Status = %q, want open", order.Status)
	}
}

func TestClient_CancelOrder(t *testing.T) {
	id := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/orders/"+id.String() {
			t.Errorf("path = %q, want /orders/%s", r.URL.Path, id)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	if err := c.CancelOrder(context.Background(), id); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
}

func TestClient_AuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		json.NewEncoder(w).Encode(model.RiskMetrics{})
	}))
	defer server.Close()

	c := NewClient(server.URL, WithAPIKey("secret"))
	if _, err := c.RiskMetrics(context.Background()); err != nil {
		t.Fatalf("RiskMetrics failed: %v", err)
	}
}
