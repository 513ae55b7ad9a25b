package writer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cryptodash/marketdata/internal/model"
	"github.com/cryptodash/marketdata/internal/stream"
)

func update(t *testing.T, typ stream.UpdateType, data any) stream.Update {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return stream.Update{Type: typ, Data: payload, ReceivedAt: time.Now()}
}

func TestFeed_RoutesTrades(t *testing.T) {
	trades := NewBuffer[model.Trade](10)
	ticks := NewBuffer[model.MarketData](10)
	feed := NewFeed(trades, ticks, nil)
	handle := feed.Handler()

	id := uuid.New()
	handle(update(t, stream.UpdateTrade, model.Trade{ID: id, Symbol: "BTC", Side: "sell"}))

	trade, ok := trades.TryReceive()
	if !ok {
		t.Fatal("trade not buffered")
	}
	if trade.ID != id || trade.Symbol != "BTC" || trade.Side != "sell" {
		t.Errorf("trade = %+v", trade)
	}
	if ticks.Len() != 0 {
		t.Error("trade update must not reach the tick buffer")
	}
}

func TestFeed_RoutesTicks(t *testing.T) {
	trades := NewBuffer[model.Trade](10)
	ticks := NewBuffer[model.MarketData](10)
	feed := NewFeed(trades, ticks, nil)
	handle := feed.Handler()

	handle(update(t, stream.UpdateMarketData, model.MarketData{Symbol: "ETH", Price: 3100}))

	md, ok := ticks.TryReceive()
	if !ok {
		t.Fatal("tick not buffered")
	}
	if md.Symbol != "ETH" || md.Price != 3100 {
		t.Errorf("tick = %+v", md)
	}
	if trades.Len() != 0 {
		t.Error("market data must not reach the trade buffer")
	}
}

func TestFeed_IgnoresOtherTypes(t *testing.T) {
	trades := NewBuffer[model.Trade](10)
	ticks := NewBuffer[model.MarketData](10)
	feed := NewFeed(trades, ticks, nil)
	handle := feed.Handler()

	handle(update(t, stream.UpdatePortfolio, map[string]any{}))
	handle(update(t, stream.UpdateRisk, map[string]any{}))

	if trades.Len() != 0 || ticks.Len() != 0 {
		t.Error("portfolio/risk updates must not be persisted")
	}
}

func TestFeed_CountsDecodeErrors(t *testing.T) {
	trades := NewBuffer[model.Trade](10)
	feed := NewFeed(trades, nil, nil)
	handle := feed.Handler()

	handle(stream.Update{Type: stream.UpdateTrade, Data: []byte("{bad"), ReceivedAt: time.Now()})

	if got := feed.Stats().DecodeErrors; got != 1 {
		t.Errorf("DecodeErrors = %d, want 1", got)
	}
	if trades.Len() != 0 {
		t.Error("undecodable update must not be buffered")
	}
}

func TestFeed_NilBuffers(t *testing.T) {
	feed := NewFeed(nil, nil, nil)
	handle := feed.Handler()

	// Must not panic with no buffers attached.
	handle(update(t, stream.UpdateTrade, model.Trade{}))
	handle(update(t, stream.UpdateMarketData, model.MarketData{}))
}
