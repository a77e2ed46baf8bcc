package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bookFrame = `[{
	"market": "0x0d880d85cadbe01cf69b30215a8f7304f0bc3e31f6f92218b0b02c9f145e9780",
	"asset_id": "8395",
	"timestamp": "1770358715148",
	"hash": "85689a7a09cab2edbfe5785f9a418bdd71451877",
	"bids": [{"price": "0.36", "size": "1000"}, {"price": "0.37", "size": "20"}],
	"asks": [{"price": "0.39", "size": "500"}, {"price": "0.38", "size": "50"}],
	"event_type": "book",
	"last_trade_price": "0.370"
}]`

const priceChangeFrame = `{
	"market": "0x0d88",
	"price_changes": [
		{"asset_id": "other", "price": "0.6", "size": "1", "side": "SELL", "best_bid": "0.59", "best_ask": "0.61"},
		{"asset_id": "8395", "price": "0.37", "size": "2589581.43", "side": "BUY", "best_bid": "0.37", "best_ask": "0.38"}
	],
	"timestamp": "1770358730471",
	"event_type": "price_change"
}`

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantLen   int
		wantTypes []string
		wantErr   bool
	}{
		{name: "book array", data: bookFrame, wantLen: 1, wantTypes: []string{EventTypeBook}},
		{name: "single object", data: priceChangeFrame, wantLen: 1, wantTypes: []string{EventTypePriceChange}},
		{
			name:      "multiple",
			data:      `[{"event_type": "book", "timestamp": "1"}, {"event_type": "price_change", "timestamp": "2"}]`,
			wantLen:   2,
			wantTypes: []string{EventTypeBook, EventTypePriceChange},
		},
		{name: "empty array", data: `[]`, wantLen: 0},
		{name: "empty", data: ``, wantLen: 0},
		{name: "whitespace", data: "  \n ", wantLen: 0},
		{name: "pong", data: `PONG`, wantLen: 0},
		{name: "invalid array", data: `[{invalid json`, wantErr: true},
		{name: "invalid object", data: `{"event_type": 5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, messages, tt.wantLen)
			for i, et := range tt.wantTypes {
				assert.Equal(t, et, messages[i].EventType)
			}
		})
	}
}

func TestBestQuote_Book(t *testing.T) {
	messages, err := Parse([]byte(bookFrame))
	require.NoError(t, err)

	q, ok := BestQuote(messages[0], "8395")
	require.True(t, ok)
	assert.Equal(t, "0.37", q.BestBid)
	assert.Equal(t, "0.38", q.BestAsk)
	assert.Equal(t, "0.370", q.LastTrade)

	_, ok = BestQuote(messages[0], "someone-else")
	assert.False(t, ok)
}

func TestBestQuote_PriceChange(t *testing.T) {
	messages, err := Parse([]byte(priceChangeFrame))
	require.NoError(t, err)

	q, ok := BestQuote(messages[0], "8395")
	require.True(t, ok)
	assert.Equal(t, "0.37", q.BestBid)
	assert.Equal(t, "0.38", q.BestAsk)
	assert.Empty(t, q.LastTrade)
}

func TestBestQuote_LastTrade(t *testing.T) {
	msg := Message{EventType: EventTypeLastTradePrice, AssetID: "8395", Price: "0.41", Timestamp: "9"}
	q, ok := BestQuote(msg, "8395")
	require.True(t, ok)
	assert.Equal(t, "0.41", q.LastTrade)

	_, ok = BestQuote(Message{EventType: EventTypeTickSizeChange, AssetID: "8395"}, "8395")
	assert.False(t, ok)
}

func TestTopOfBook_Merge(t *testing.T) {
	base := TopOfBook{AssetID: "a", BestBid: "0.30", BestAsk: "0.32", LastTrade: "0.31", Timestamp: "1"}
	got := base.Merge(TopOfBook{AssetID: "a", LastTrade: "0.33", Timestamp: "2"})

	assert.Equal(t, TopOfBook{AssetID: "a", BestBid: "0.30", BestAsk: "0.32", LastTrade: "0.33", Timestamp: "2"}, got)
}
