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

// tickRow is the market_ticks table shape.
type tickRow struct {
	Symbol    string
	Price     float64
	Change24h float64
	Volume24h float64
	High24h   float64
	Low24h    float64
	UpdatedAt time.Time
}

// TickWriter drains market snapshots from its input buffer and
// batch-inserts them into the market_ticks hypertable.
type TickWriter struct {
	cfg    Config
	logger *slog.Logger

	input *Buffer[model.MarketData]
	db    *pgxpool.Pool

	batch   []tickRow
	batchMu sync.Mutex
	metrics Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTickWriter creates a TickWriter.
func NewTickWriter(cfg Config, input *Buffer[model.MarketData], db *pgxpool.Pool, logger *slog.Logger) *TickWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger.With("writer", "ticks"),
		batch:  make([]tickRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming and flushing.
func (w *TickWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.consumeLoop()
	go w.flushLoop()

	w.logger.Info("tick writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts the writer down after a final flush.
func (w *TickWriter) Stop(ctx context.Context) error {
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
		w.logger.Warn("tick writer stop timed out")
	}

	w.flush(ctx)
	return nil
}

// Stats returns current counters.
func (w *TickWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *TickWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		md, ok := w.input.TryReceive()
		if !ok {
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		w.append(tickToRow(md))
	}
}

func (w *TickWriter) flushLoop() {
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

func tickToRow(md model.MarketData) tickRow {
	return tickRow{
		Symbol:    md.Symbol,
		Price:     md.Price,
		Change24h: md.Change24h,
		Volume24h: md.Volume24h,
		High24h:   md.High24h,
		Low24h:    md.Low24h,
		UpdatedAt: md.UpdatedAt.UTC(),
	}
}

func (w *TickWriter) append(row tickRow) {
	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func (w *TickWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]tickRow, 0, w.cfg.BatchSize)
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

	w.logger.Debug("flushed ticks",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

func (w *TickWriter) batchInsert(ctx context.Context, rows []tickRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO market_ticks (symbol, price, change_24h, volume_24h, high_24h, low_24h, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, updated_at) DO NOTHING
		`, r.Symbol, r.Price, r.Change24h, r.Volume24h, r.High24h, r.Low24h, r.UpdatedAt)
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
