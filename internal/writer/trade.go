package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptodash/marketdata/internal/model"
)

// tradeRow is the trades table shape.
type tradeRow struct {
	ID         string
	Symbol     string
	Side       string
	Price      float64
	Quantity   float64
	ExecutedAt time.Time
}

// TradeWriter drains trades from its input buffer and batch-inserts them
// into the trades hypertable.
type TradeWriter struct {
	cfg    Config
	logger *slog.Logger

	input *Buffer[model.Trade]
	db    *pgxpool.Pool

	batch   []tradeRow
	batchMu sync.Mutex
	metrics Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTradeWriter creates a TradeWriter.
func NewTradeWriter(cfg Config, input *Buffer[model.Trade], db *pgxpool.Pool, logger *slog.Logger) *TradeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TradeWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger.With("writer", "trades"),
		batch:  make([]tradeRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming and flushing.
func (w *TradeWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info("trade writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts the writer down after a final flush.
func (w *TradeWriter) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("trade writer stop timed out")
	}

	w.flush(ctx)
	return nil
}

// Stats returns current counters.
func (w *TradeWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *TradeWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		trade, ok := w.input.TryReceive()
		if !ok {
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		w.append(tradeToRow(trade))
	}
}

func (w *TradeWriter) flushLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.flush(w.ctx)
		}
	}
}

func tradeToRow(t model.Trade) tradeRow {
	return tradeRow{
		ID:         t.ID.String(),
		Symbol:     t.Symbol,
		Side:       t.Side,
		Price:      t.Price,
		Quantity:   t.Quantity,
		ExecutedAt: t.ExecutedAt.UTC(),
	}
}

func (w *TradeWriter) append(row tradeRow) {
	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func (w *TradeWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]tradeRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed trades",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

func (w *TradeWriter) batchInsert(ctx context.Context, rows []tradeRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO trades (id, symbol, side, price, quantity, executed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, r.ID, r.Symbol, r.Side, r.Price, r.Quantity, r.ExecutedAt)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
