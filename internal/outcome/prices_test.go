package outcome

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePrices(t *testing.T) {
	tests := []struct {
		name    string
		pair    PricePair
		yes     float64
		no      float64
		percent int
	}{
		{"three quarters", PricePair{"0.75", "0.25"}, 0.75, 0.25, 75},
		{"half rounds up", PricePair{"0.005", "0.995"}, 0.005, 0.995, 1},
		{"classic float trap", PricePair{"0.285", "0.715"}, 0.285, 0.715, 29},
		{"below half rounds down", PricePair{"0.374", "0.626"}, 0.374, 0.626, 37},
		{"settled yes", PricePair{"1", "0"}, 1, 0, 100},
		{"settled no", PricePair{"0", "1"}, 0, 1, 0},
		{"whitespace", PricePair{" 0.03 ", "0.97"}, 0.03, 0.97, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePrices(tt.pair)
			assert.InDelta(t, tt.yes, got.YesPrice, 1e-12)
			assert.InDelta(t, tt.no, got.NoPrice, 1e-12)
			assert.Equal(t, tt.percent, got.ImpliedProbPercent)
			assert.True(t, got.Valid())
		})
	}
}

func TestNormalizePrices_Garbage(t *testing.T) {
	got := NormalizePrices(PricePair{"abc", "0.4"})
	assert.True(t, math.IsNaN(got.YesPrice))
	assert.InDelta(t, 0.4, got.NoPrice, 1e-12)
	assert.Equal(t, 0, got.ImpliedProbPercent)
	assert.False(t, got.Valid())

	got = NormalizePrices(PricePair{"0.6", ""})
	assert.True(t, math.IsNaN(got.NoPrice))
	assert.Equal(t, 60, got.ImpliedProbPercent)
	assert.False(t, got.Valid())
}

func TestNormalizePrices_OutOfRange(t *testing.T) {
	start := time.Now()
	for _, pair := range []PricePair{
		{"1e5000000", "0"},
		{"1e-5000000", "0"},
		{"0", "1e12000000"},
	} {
		got := NormalizePrices(pair)
		assert.False(t, got.Valid(), "%v", pair)
	}
	assert.Less(t, time.Since(start), time.Second)

	got := NormalizePrices(PricePair{"1e20", "0"})
	assert.True(t, math.IsNaN(got.YesPrice))
	assert.Equal(t, 0, got.ImpliedProbPercent)
	assert.False(t, got.Valid())

	got = NormalizePrices(PricePair{"1e-20", "1"})
	assert.True(t, got.Valid())
	assert.Equal(t, 0, got.ImpliedProbPercent)
}

func TestPrices_Settled(t *testing.T) {
	assert.True(t, Prices{ImpliedProbPercent: 0}.Settled())
	assert.True(t, Prices{ImpliedProbPercent: 100}.Settled())
	assert.False(t, Prices{ImpliedProbPercent: 1}.Settled())
	assert.False(t, Prices{ImpliedProbPercent: 99}.Settled())
}
