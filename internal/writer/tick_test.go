package writer

import (
	"context"
	"testing"
	"time"

	"github.com/cryptodash/marketdata/internal/model"
)

func TestTickToRow(t *testing.T) {
	updatedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	row := tickToRow(model.MarketData{
		Symbol:    "ETH",
		Price:     3100.25,
		Change24h: -1.5,
		Volume24h: 9e8,
		High24h:   3200,
		Low24h:    3050,
		UpdatedAt: updatedAt,
	})

	if row.Symbol != "ETH" {
		t.Errorf("Symbol = %s, want ETH", row.Symbol)
	}
	if row.Price != 3100.25 {
		t.Errorf("Price = %v, want 3100.25", row.Price)
	}
	if row.Change24h != -1.5 {
		t.Errorf("Change24h = %v, want -1.5", row.Change24h)
	}
	if row.High24h != 3200 || row.Low24h != 3050 {
		t.Errorf("High/Low = %v/%v, want 3200/3050", row.High24h, row.Low24h)
	}
	if !row.UpdatedAt.Equal(updatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", row.UpdatedAt, updatedAt)
	}
}

func TestTickWriter_Lifecycle(t *testing.T) {
	cfg := Config{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
	}
	input := NewBuffer[model.MarketData](10)
	w := NewTickWriter(cfg, input, nil, nil)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
