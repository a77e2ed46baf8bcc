// Package ws provides a WebSocket client for the Polymarket CLOB market feed.
package ws

import (
	"github.com/johan/sads-console/internal/types"
)

// SubscribeMessage is the message sent to subscribe to token updates.
type SubscribeMessage struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type,omitempty"`
}

// Message represents a message received from the WebSocket.
type Message struct {
	EventType      string             `json:"event_type"`
	Market         string             `json:"market"`
	AssetID        string             `json:"asset_id,omitempty"`
	Timestamp      string             `json:"timestamp"`
	Hash           string             `json:"hash,omitempty"`
	Bids           []types.PriceLevel `json:"bids,omitempty"`
	Asks           []types.PriceLevel `json:"asks,omitempty"`
	LastTradePrice string             `json:"last_trade_price,omitempty"`
	Price          string             `json:"price,omitempty"`
	PriceChanges   []PriceChange      `json:"price_changes,omitempty"`
}

// PriceChange represents a single price level change.
type PriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"` // "BUY" or "SELL"
	Hash    string `json:"hash"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

const (
	EventTypeBook           = "book"
	EventTypePriceChange    = "price_change"
	EventTypeLastTradePrice = "last_trade_price"
	EventTypeTickSizeChange = "tick_size_change"
)

// TopOfBook is the display view of one token: best bid, best ask and last trade.
// Empty strings mean the message did not carry that field.
type TopOfBook struct {
	AssetID   string `json:"assetId"`
	BestBid   string `json:"bestBid,omitempty"`
	BestAsk   string `json:"bestAsk,omitempty"`
	LastTrade string `json:"lastTrade,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// BestQuote extracts the top of book for assetID from msg. ok is false when
// msg says nothing about that token.
func BestQuote(msg Message, assetID string) (TopOfBook, bool) {
	q := TopOfBook{AssetID: assetID, Timestamp: msg.Timestamp}

	switch msg.EventType {
	case EventTypeBook:
		if msg.AssetID != assetID {
			return q, false
		}
		q.BestBid = types.BestBid(msg.Bids)
		q.BestAsk = types.BestAsk(msg.Asks)
		q.LastTrade = msg.LastTradePrice
		return q, true

	case EventTypePriceChange:
		found := false
		for _, pc := range msg.PriceChanges {
			if pc.AssetID != assetID {
				continue
			}
			q.BestBid, q.BestAsk = pc.BestBid, pc.BestAsk
			found = true
		}
		return q, found

	case EventTypeLastTradePrice:
		if msg.AssetID != assetID {
			return q, false
		}
		q.LastTrade = msg.Price
		return q, true
	}
	return q, false
}

// Merge overlays the non-empty fields of next onto q.
func (q TopOfBook) Merge(next TopOfBook) TopOfBook {
	if next.BestBid != "" {
		q.BestBid = next.BestBid
	}
	if next.BestAsk != "" {
		q.BestAsk = next.BestAsk
	}
	if next.LastTrade != "" {
		q.LastTrade = next.LastTrade
	}
	if next.Timestamp != "" {
		q.Timestamp = next.Timestamp
	}
	if q.AssetID == "" {
		q.AssetID = next.AssetID
	}
	return q
}
