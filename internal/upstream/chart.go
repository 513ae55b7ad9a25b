package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/cryptodash/marketdata/internal/model"
)

// ChartRequest identifies a historical price/volume series.
type ChartRequest struct {
	CoinID     string // e.g. "bitcoin"
	VsCurrency string // e.g. "usd"
	Days       int    // Lookback window in days; 0 with From/To for a date range
	From       int64  // Unix seconds, used when Days == 0
	To         int64  // Unix seconds, used when Days == 0
	Interval   string // Upstream sampling hint (e.g. "hourly"), optional
}

// ChartResponse holds the decoded series. Both slices are ordered by
// ascending timestamp as delivered upstream.
type ChartResponse struct {
	Prices  []model.PricePoint
	Volumes []model.VolumePoint
}

// chartWire matches the upstream JSON: pairs of [ms-timestamp, value].
type chartWire struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// MarketChart fetches the historical price/volume series for a coin.
func (c *Client) MarketChart(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	query := url.Values{}
	query.Set("vs_currency", req.VsCurrency)
	if req.Days > 0 {
		query.Set("days", fmt.Sprintf("%d", req.Days))
	} else {
		query.Set("from", fmt.Sprintf("%d", req.From))
		query.Set("to", fmt.Sprintf("%d", req.To))
	}
	if req.Interval != "" {
		query.Set("interval", req.Interval)
	}

	var wire chartWire
	path := "/coins/" + url.PathEscape(req.CoinID) + "/market_chart"
	if err := c.get(ctx, path, query, &wire); err != nil {
		return nil, fmt.Errorf("get market chart: %w", err)
	}

	resp := &ChartResponse{
		Prices:  make([]model.PricePoint, 0, len(wire.Prices)),
		Volumes: make([]model.VolumePoint, 0, len(wire.TotalVolumes)),
	}
	for _, p := range wire.Prices {
		resp.Prices = append(resp.Prices, model.PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	for _, v := range wire.TotalVolumes {
		resp.Volumes = append(resp.Volumes, model.VolumePoint{
			Time:   time.UnixMilli(int64(v[0])).UTC(),
			Volume: v[1],
		})
	}

	return resp, nil
}
