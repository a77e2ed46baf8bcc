// Package wallet provides the wallet used by the trading page. The demo
// provider reproduces the mock wallet; the signer provider holds a real EVM key
// and signs bet intents without submitting them.
package wallet

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/trade"
)

// ErrNotConnected is reported in a BetResult when no wallet is connected.
var ErrNotConnected = errors.New("Wallet not connected")

// ErrInvalidBet is returned by PlaceBet for malformed bets.
var ErrInvalidBet = errors.New("invalid bet")

// Provider is a connectable wallet that can place bets.
type Provider interface {
	Status() Status
	Connect(ctx context.Context) (Status, error)
	Disconnect(ctx context.Context) (Status, error)

	// PlaceBet returns an error only for an invalid bet. A well-formed bet
	// that cannot be placed yields a result with Success=false.
	PlaceBet(ctx context.Context, bet Bet) (BetResult, error)
}

// Status is the wallet state shown in the header.
type Status struct {
	Mode          string `json:"mode"`
	Ready         bool   `json:"ready"`
	Authenticated bool   `json:"authenticated"`
	Address       string `json:"address,omitempty"`
	ShortAddress  string `json:"shortAddress,omitempty"`
}

// Bet is a request to buy one side of a market.
type Bet struct {
	MarketID string          `json:"marketId"`
	Side     trade.Side      `json:"side"`
	Amount   decimal.Decimal `json:"amount"`
}

// BetResult is the outcome of PlaceBet.
type BetResult struct {
	Success   bool   `json:"success"`
	TxID      string `json:"txId,omitempty"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Validate checks that the bet names a market and side and has a positive amount.
func (b Bet) Validate() error {
	if strings.TrimSpace(b.MarketID) == "" {
		return errors.Wrap(ErrInvalidBet, "market id is required")
	}
	if b.Side != trade.SideYes && b.Side != trade.SideNo {
		return errors.Wrapf(ErrInvalidBet, "side must be yes or no, got %q", b.Side)
	}
	if !b.Amount.IsPositive() {
		return errors.Wrap(ErrInvalidBet, "amount must be positive")
	}
	if err := trade.CheckAmount(b.Amount); err != nil {
		return errors.Wrap(ErrInvalidBet, err.Error())
	}
	return nil
}

// New builds the provider selected by cfg.Mode.
func New(cfg config.WalletConfig) (Provider, error) {
	switch cfg.Mode {
	case "", "demo":
		return NewDemo(), nil
	case "signer":
		return NewSigner(cfg)
	default:
		return nil, errors.Errorf("invalid wallet mode: %s", cfg.Mode)
	}
}

// Shorten abbreviates an address to its first and last four characters.
func Shorten(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:4] + "..." + addr[len(addr)-4:]
}
