package negotiate

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func TestRequestRoundTrip(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	req := swap.Request{
		SwapId:              swap.NewId(),
		AlphaLedger:         swap.Bitcoin(swap.BitcoinTestnet),
		BetaLedger:          swap.Ethereum(5),
		AlphaAsset:          swap.BitcoinAsset(150000),
		BetaAsset:           swap.EtherAsset(big.NewInt(2_000_000_000_000_000_000)),
		AlphaRefundIdentity: swap.BitcoinIdentity(priv.PubKey()),
		BetaRedeemIdentity:  swap.EthereumIdentity(common.HexToAddress("0x3333333333333333333333333333333333333333")),
		AlphaExpiry:         700000,
		BetaExpiry:          600000,
		SecretHash:          secret.Hash(),
	}

	frame, err := EncodeRequest(req)
	require.NoError(t, err)

	got, err := DecodeRequest(frame)
	require.NoError(t, err)

	require.Equal(t, req.SwapId, got.SwapId)
	require.Equal(t, req.AlphaLedger, got.AlphaLedger)
	require.Equal(t, req.BetaLedger, got.BetaLedger)
	require.Equal(t, req.AlphaAsset.Sats, got.AlphaAsset.Sats)
	require.Equal(t, 0, req.BetaAsset.WeiAmount.Cmp(got.BetaAsset.WeiAmount))
	require.Equal(t, req.AlphaExpiry, got.AlphaExpiry)
	require.Equal(t, req.BetaExpiry, got.BetaExpiry)
	require.Equal(t, req.SecretHash, got.SecretHash)
}

func TestResponseRoundTripAccept(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	alphaLedger := swap.Bitcoin(swap.BitcoinTestnet)
	betaLedger := swap.Ethereum(5)

	resp := swap.AcceptResponse(
		swap.BitcoinIdentity(priv.PubKey()),
		swap.EthereumIdentity(common.HexToAddress("0x4444444444444444444444444444444444444444")),
	)

	frame, err := EncodeResponse(resp, alphaLedger, betaLedger)
	require.NoError(t, err)

	got, err := DecodeResponse(frame, alphaLedger, betaLedger)
	require.NoError(t, err)
	require.True(t, got.Accepted)
}

func TestResponseRoundTripDecline(t *testing.T) {
	resp := swap.DeclineResponse(swap.DeclineReasonInsufficientFunds)

	frame, err := EncodeResponse(resp, swap.Ledger{}, swap.Ledger{})
	require.NoError(t, err)

	got, err := DecodeResponse(frame, swap.Ledger{}, swap.Ledger{})
	require.NoError(t, err)
	require.False(t, got.Accepted)
	require.Equal(t, swap.DeclineReasonInsufficientFunds, got.DeclineReason)
}
