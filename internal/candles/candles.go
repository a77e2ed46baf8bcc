// Package candles fabricates a deterministic candlestick series for a market.
// The series is a seeded random walk ending at the current price; it is
// display data only and every series is marked synthetic.
package candles

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
)

const (
	minPrice = 0.01
	maxPrice = 0.99

	DefaultCount = 48
	MaxCount     = 500
)

var intervals = map[string]time.Duration{
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// DefaultInterval is used when the caller names none.
const DefaultInterval = "1h"

// Candle is one OHLC bar of the yes price.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a generated set of candles, oldest first.
type Series struct {
	MarketID  string   `json:"marketId"`
	Interval  string   `json:"interval"`
	Candles   []Candle `json:"candles"`
	Synthetic bool     `json:"synthetic"`
}

// ParseInterval returns the bar width for name.
func ParseInterval(name string) (time.Duration, error) {
	if name == "" {
		name = DefaultInterval
	}
	d, ok := intervals[name]
	if !ok {
		return 0, errors.Errorf("invalid interval: %s", name)
	}
	return d, nil
}

func seed(marketID, interval string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(marketID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(interval))
	return h.Sum64()
}

func clamp(p float64) float64 {
	return math.Min(maxPrice, math.Max(minPrice, p))
}

func round4(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}

// Generate builds count candles of the given interval ending at end, whose
// last close is price. The same arguments always give the same series.
func Generate(marketID, interval string, count int, price float64, end time.Time) (*Series, error) {
	width, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		return nil, errors.Errorf("count %d exceeds maximum %d", count, MaxCount)
	}

	rng := rand.New(rand.NewPCG(seed(marketID, interval), uint64(count)))
	end = end.Truncate(width)

	// Walk backwards from the current price so the newest close matches it.
	closes := make([]float64, count)
	p := clamp(price)
	for i := count - 1; i >= 0; i-- {
		closes[i] = p
		p = clamp(p + rng.NormFloat64()*0.015)
	}

	out := make([]Candle, count)
	open := p
	for i, cl := range closes {
		spread := math.Abs(rng.NormFloat64()) * 0.008
		out[i] = Candle{
			Time:   end.Add(-time.Duration(count-1-i) * width),
			Open:   round4(open),
			High:   round4(clamp(math.Max(open, cl) + spread)),
			Low:    round4(clamp(math.Min(open, cl) - spread)),
			Close:  round4(cl),
			Volume: math.Round(1000 + rng.Float64()*49000),
		}
		open = cl
	}

	return &Series{MarketID: marketID, Interval: interval, Candles: out, Synthetic: true}, nil
}
