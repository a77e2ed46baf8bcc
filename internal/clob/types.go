// Package clob provides a client for the Polymarket CLOB REST API.
package clob

import (
	"github.com/johan/sads-console/internal/types"
)

// BookSnapshot represents an order book snapshot from the CLOB API.
type BookSnapshot struct {
	Market         string             `json:"market"`
	AssetID        string             `json:"asset_id"`
	Timestamp      string             `json:"timestamp"`
	Hash           string             `json:"hash"`
	Bids           []types.PriceLevel `json:"bids"`
	Asks           []types.PriceLevel `json:"asks"`
	MinOrderSize   string             `json:"min_order_size"`
	TickSize       string             `json:"tick_size"`
	NegRisk        bool               `json:"neg_risk"`
	LastTradePrice string             `json:"last_trade_price"`
}

// BestBid returns the highest bid price, or "" for an empty side.
func (b *BookSnapshot) BestBid() string { return types.BestBid(b.Bids) }

// BestAsk returns the lowest ask price, or "".
func (b *BookSnapshot) BestAsk() string { return types.BestAsk(b.Asks) }

// MidpointResponse represents the response from the midpoint endpoint.
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// SpreadResponse represents the response from the spread endpoint.
type SpreadResponse struct {
	Spread string `json:"spread"`
}
