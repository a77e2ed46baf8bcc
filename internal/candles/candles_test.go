package candles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var end = time.Date(2025, 12, 1, 12, 30, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	a, err := Generate("btc-150k-2025", "1h", 24, 0.03, end)
	require.NoError(t, err)
	b, err := Generate("btc-150k-2025", "1h", 24, 0.03, end)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Generate("dem-nominee-2028", "1h", 24, 0.03, end)
	require.NoError(t, err)
	assert.NotEqual(t, a.Candles, c.Candles)
}

func TestGenerate_Shape(t *testing.T) {
	s, err := Generate("dem-nominee-2028", "15m", 100, 0.37, end)
	require.NoError(t, err)

	assert.True(t, s.Synthetic)
	assert.Equal(t, "15m", s.Interval)
	require.Len(t, s.Candles, 100)

	last := s.Candles[len(s.Candles)-1]
	assert.InDelta(t, 0.37, last.Close, 1e-9)
	assert.Equal(t, end.Truncate(15*time.Minute), last.Time)

	for i, c := range s.Candles {
		assert.GreaterOrEqual(t, c.Low, minPrice)
		assert.LessOrEqual(t, c.High, maxPrice)
		assert.GreaterOrEqual(t, c.High, c.Open)
		assert.GreaterOrEqual(t, c.High, c.Close)
		assert.LessOrEqual(t, c.Low, c.Open)
		assert.LessOrEqual(t, c.Low, c.Close)
		assert.Positive(t, c.Volume)
		if i > 0 {
			assert.Equal(t, 15*time.Minute, c.Time.Sub(s.Candles[i-1].Time))
			assert.Equal(t, s.Candles[i-1].Close, c.Open)
		}
	}
}

func TestGenerate_Defaults(t *testing.T) {
	s, err := Generate("m", "", 0, 0.5, end)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, s.Interval)
	assert.Len(t, s.Candles, DefaultCount)
}

func TestGenerate_ClampsPrice(t *testing.T) {
	s, err := Generate("m", "1d", 10, 1.0, end)
	require.NoError(t, err)
	assert.InDelta(t, maxPrice, s.Candles[9].Close, 1e-9)
}

func TestGenerate_Invalid(t *testing.T) {
	_, err := Generate("m", "2w", 10, 0.5, end)
	assert.Error(t, err)

	_, err = Generate("m", "1h", MaxCount+1, 0.5, end)
	assert.Error(t, err)
}
