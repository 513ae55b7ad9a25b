package candle

import (
	"time"

	"github.com/cryptodash/marketdata/internal/model"
)

// Aggregate buckets ordered price samples into OHLCV candles of the given
// width. Volume samples are matched to buckets independently: each candle
// carries the volume sample nearest its bucket end, or 0 when the bucket has
// no volume sample.
//
// Buckets are half-open intervals [t, t+width) aligned to the epoch; a sample
// landing exactly on a boundary belongs to the bucket it opens. Buckets with
// no price sample are omitted, with no forward fill.
//
// Both inputs must be sorted by ascending timestamp.
func Aggregate(prices []model.PricePoint, volumes []model.VolumePoint, width time.Duration) []model.Candle {
	if width <= 0 || len(prices) == 0 {
		return nil
	}

	candles := make([]model.Candle, 0, len(prices))
	vi := 0 // cursor into volumes, advances monotonically

	for i := 0; i < len(prices); {
		start := prices[i].Time.Truncate(width)
		end := start.Add(width)

		c := model.Candle{
			Time: start,
			Open: prices[i].Price,
			High: prices[i].Price,
			Low:  prices[i].Price,
		}

		// Fold every price sample inside [start, end).
		for ; i < len(prices) && prices[i].Time.Before(end); i++ {
			p := prices[i].Price
			if p > c.High {
				c.High = p
			}
			if p < c.Low {
				c.Low = p
			}
			c.Close = p
		}

		// Volume: the in-bucket sample nearest the bucket end.
		for vi < len(volumes) && volumes[vi].Time.Before(start) {
			vi++
		}
		for j := vi; j < len(volumes) && volumes[j].Time.Before(end); j++ {
			c.Volume = volumes[j].Volume
		}

		candles = append(candles, c)
	}

	return candles
}
