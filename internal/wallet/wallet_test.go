package wallet

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/trade"
)

const (
	testMnemonic = "tag volcano eight thank tide danger coast health above argue embrace heavy"
	testAddress  = "0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947"

	testPrivateKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"
	testKeyAddress = "0x96216849c49358B10257cb55b28eA603c874b05E"
)

func validBet() Bet {
	return Bet{MarketID: "dem-nominee-2028", Side: trade.SideYes, Amount: decimal.NewFromInt(25)}
}

func TestBetValidate(t *testing.T) {
	assert.NoError(t, validBet().Validate())

	b := validBet()
	b.MarketID = " "
	assert.ErrorIs(t, b.Validate(), ErrInvalidBet)

	b = validBet()
	b.Side = "maybe"
	assert.ErrorIs(t, b.Validate(), ErrInvalidBet)

	b = validBet()
	b.Amount = decimal.Zero
	assert.ErrorIs(t, b.Validate(), ErrInvalidBet)

	b = validBet()
	b.Amount = decimal.RequireFromString("1e5000000")
	assert.ErrorIs(t, b.Validate(), ErrInvalidBet)

	b = validBet()
	b.Amount = decimal.NewFromInt(2_000_000_000_000)
	assert.ErrorIs(t, b.Validate(), ErrInvalidBet)
}

func TestDemo(t *testing.T) {
	ctx := context.Background()
	d := NewDemo()

	st := d.Status()
	assert.True(t, st.Ready)
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.Address)

	res, err := d.PlaceBet(ctx, validBet())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Wallet not connected", res.Error)

	st, err = d.Connect(ctx)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "DemoWallet123456789abcdef", st.Address)
	assert.Equal(t, "Demo...cdef", st.ShortAddress)

	res, err = d.PlaceBet(ctx, validBet())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Regexp(t, `^demo_[0-9a-f-]{36}$`, res.TxID)

	_, err = d.PlaceBet(ctx, Bet{})
	assert.ErrorIs(t, err, ErrInvalidBet)

	st, err = d.Disconnect(ctx)
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
}

func TestNewSigner_Mnemonic(t *testing.T) {
	s, err := NewSigner(config.WalletConfig{Mnemonic: testMnemonic, DerivationPath: "m/44'/60'/0'/0/0"})
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address())
}

func TestNewSigner_PrivateKey(t *testing.T) {
	s, err := NewSigner(config.WalletConfig{PrivateKey: "0x" + testPrivateKey})
	require.NoError(t, err)
	assert.Equal(t, testKeyAddress, s.Address())
}

func TestNewSigner_Errors(t *testing.T) {
	_, err := NewSigner(config.WalletConfig{})
	assert.Error(t, err)

	_, err = NewSigner(config.WalletConfig{Mnemonic: "not a mnemonic", DerivationPath: "m/44'/60'/0'/0/0"})
	assert.Error(t, err)

	_, err = NewSigner(config.WalletConfig{Mnemonic: testMnemonic})
	assert.Error(t, err)

	_, err = NewSigner(config.WalletConfig{PrivateKey: "zz"})
	assert.Error(t, err)
}

func TestSigner_SignRecovers(t *testing.T) {
	s, err := NewSigner(config.WalletConfig{PrivateKey: testPrivateKey})
	require.NoError(t, err)

	text := Intent(validBet(), s.Address(), "n1")
	sig, err := s.sign(text)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(text)), raw)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub).Hex())
}

func TestSigner_PlaceBet(t *testing.T) {
	ctx := context.Background()
	s, err := NewSigner(config.WalletConfig{PrivateKey: testPrivateKey})
	require.NoError(t, err)

	res, err := s.PlaceBet(ctx, validBet())
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = s.Connect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0x96...b05E", s.Status().ShortAddress)

	res, err = s.PlaceBet(ctx, validBet())
	require.NoError(t, err)
	require.True(t, res.Success)

	sig, err := hexutil.Decode(res.Signature)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(sig).Hex(), res.TxID)
}

func TestNew(t *testing.T) {
	p, err := New(config.WalletConfig{Mode: "demo"})
	require.NoError(t, err)
	assert.IsType(t, &Demo{}, p)

	p, err = New(config.WalletConfig{Mode: "signer", PrivateKey: testPrivateKey})
	require.NoError(t, err)
	assert.IsType(t, &Signer{}, p)

	_, err = New(config.WalletConfig{Mode: "ledger"})
	assert.Error(t, err)
}
