package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/johan/sads-console/internal/config"
)

// Signer holds an EVM key and signs each bet as an EIP-191 personal message.
// The signature is returned to the caller; nothing is broadcast.
type Signer struct {
	key     *ecdsa.PrivateKey
	address string

	mu        sync.Mutex
	connected bool
	logger    *logrus.Entry
}

// NewSigner loads the key from a mnemonic and derivation path, or from a hex
// private key when no mnemonic is set.
func NewSigner(cfg config.WalletConfig) (*Signer, error) {
	var (
		key *ecdsa.PrivateKey
		err error
	)
	switch {
	case strings.TrimSpace(cfg.Mnemonic) != "":
		key, err = deriveKey(cfg.Mnemonic, cfg.DerivationPath)
	case strings.TrimSpace(cfg.PrivateKey) != "":
		key, err = crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x"))
		err = errors.Wrap(err, "invalid private key")
	default:
		err = errors.New("signer wallet needs mnemonic or private_key")
	}
	if err != nil {
		return nil, err
	}

	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		logger:  logrus.WithField("component", "wallet"),
	}, nil
}

func deriveKey(mnemonic, derivationPath string) (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(derivationPath) == "" {
		return nil, errors.New("derivation_path is required")
	}
	w, err := hdwallet.NewFromMnemonic(strings.TrimSpace(mnemonic))
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	path, err := hdwallet.ParseDerivationPath(strings.TrimSpace(derivationPath))
	if err != nil {
		return nil, errors.Wrap(err, "invalid derivation_path")
	}
	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "derive failed")
	}
	key, err := w.PrivateKey(acct)
	if err != nil {
		return nil, errors.Wrap(err, "private key failed")
	}
	return key, nil
}

// Address returns the checksummed EVM address.
func (s *Signer) Address() string {
	return s.address
}

func (s *Signer) status() Status {
	st := Status{Mode: "signer", Ready: true, Authenticated: s.connected}
	if s.connected {
		st.Address = s.address
		st.ShortAddress = Shorten(s.address)
	}
	return st
}

// Status returns the current state.
func (s *Signer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Connect exposes the address.
func (s *Signer) Connect(context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return s.status(), nil
}

// Disconnect hides the address and stops signing.
func (s *Signer) Disconnect(context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return s.status(), nil
}

// Intent is the text signed for a bet. The nonce makes every intent unique.
func Intent(bet Bet, address, nonce string) string {
	return fmt.Sprintf("SADS bet\nmarket: %s\nside: %s\namount: %s USDC\naddress: %s\nnonce: %s",
		bet.MarketID, bet.Side, bet.Amount.StringFixed(2), address, nonce)
}

// PlaceBet signs the bet intent. The transaction id is the keccak hash of
// the signature.
func (s *Signer) PlaceBet(_ context.Context, bet Bet) (BetResult, error) {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()

	if !connected {
		return BetResult{Error: ErrNotConnected.Error()}, nil
	}
	if err := bet.Validate(); err != nil {
		return BetResult{}, err
	}

	sig, err := s.sign(Intent(bet, s.address, uuid.NewString()))
	if err != nil {
		s.logger.WithError(err).Error("Signing bet failed")
		return BetResult{Error: "signing failed"}, nil
	}

	txID := crypto.Keccak256Hash(sig).Hex()
	s.logger.WithFields(logrus.Fields{
		"market": bet.MarketID,
		"side":   bet.Side,
		"amount": bet.Amount.StringFixed(2),
		"tx":     txID,
	}).Info("Bet intent signed")

	return BetResult{Success: true, TxID: txID, Signature: hexutil.Encode(sig)}, nil
}

// sign returns the 65-byte EIP-191 signature of text with V in {27, 28}.
func (s *Signer) sign(text string) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), s.key)
	if err != nil {
		return nil, err
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}
