package wallet

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DemoAddress is the address shown while the demo wallet is connected.
const DemoAddress = "DemoWallet123456789abcdef"

// Demo is a mock wallet. Connecting always succeeds and bets return a fake
// transaction id.
type Demo struct {
	mu        sync.Mutex
	connected bool
	logger    *logrus.Entry
}

// NewDemo creates a disconnected demo wallet.
func NewDemo() *Demo {
	return &Demo{logger: logrus.WithField("component", "wallet")}
}

func (d *Demo) status() Status {
	s := Status{Mode: "demo", Ready: true, Authenticated: d.connected}
	if d.connected {
		s.Address = DemoAddress
		s.ShortAddress = Shorten(DemoAddress)
	}
	return s
}

// Status returns the current state.
func (d *Demo) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status()
}

// Connect marks the wallet connected.
func (d *Demo) Connect(context.Context) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return d.status(), nil
}

// Disconnect marks the wallet disconnected.
func (d *Demo) Disconnect(context.Context) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return d.status(), nil
}

// PlaceBet records nothing and returns a demo_ transaction id.
func (d *Demo) PlaceBet(_ context.Context, bet Bet) (BetResult, error) {
	d.mu.Lock()
	connected := d.connected
	d.mu.Unlock()

	if !connected {
		return BetResult{Error: ErrNotConnected.Error()}, nil
	}
	if err := bet.Validate(); err != nil {
		return BetResult{}, err
	}

	d.logger.WithFields(logrus.Fields{
		"market": bet.MarketID,
		"side":   bet.Side,
		"amount": bet.Amount.StringFixed(2),
	}).Info("Demo bet placed")

	return BetResult{Success: true, TxID: "demo_" + uuid.NewString()}, nil
}
