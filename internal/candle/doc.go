// Package candle converts raw price/volume samples into fixed-interval
// OHLCV candles.
//
// Aggregation is a pure function: no state, no side effects, and the same
// inputs always produce the same candles. Callers pick the bucket width;
// samples do not need to be aligned to bucket boundaries.
package candle
