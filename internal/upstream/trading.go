package upstream

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/cryptodash/marketdata/internal/model"
)

// MarketData fetches the current snapshot for a symbol.
func (c *Client) MarketData(ctx context.Context, symbol string) (*model.MarketData, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var md model.MarketData
	if err := c.get(ctx, "/market-data", query, &md); err != nil {
		return nil, fmt.Errorf("get market data: %w", err)
	}

	return &md, nil
}

// TradeHistory fetches the account's executed trades.
func (c *Client) TradeHistory(ctx context.Context) ([]model.Trade, error) {
	var resp struct {
		Trades []model.Trade `json:"trades"`
	}
	if err := c.get(ctx, "/trades", nil, &resp); err != nil {
		return nil, fmt.Errorf("get trade history: %w", err)
	}

	return resp.Trades, nil
}

// PortfolioMetrics fetches the current portfolio summary.
func (c *Client) PortfolioMetrics(ctx context.Context) (*model.PortfolioMetrics, error) {
	var pm model.PortfolioMetrics
	if err := c.get(ctx, "/portfolio", nil, &pm); err != nil {
		return nil, fmt.Errorf("get portfolio metrics: %w", err)
	}

	return &pm, nil
}

// RiskMetrics fetches the current risk summary.
func (c *Client) RiskMetrics(ctx context.Context) (*model.RiskMetrics, error) {
	var rm model.RiskMetrics
	if err := c.get(ctx, "/risk", nil, &rm); err != nil {
		return nil, fmt.Errorf("get risk metrics: %w", err)
	}

	return &rm, nil
}

// PlaceOrder submits a new order.
func (c *Client) PlaceOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.post(ctx, "/orders", req, &order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	return &order, nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID) error {
	if err := c.del(ctx, "/orders/"+id.String()); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}

	return nil
}
