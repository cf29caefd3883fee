package htlc

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func TestForBitcoin(t *testing.T) {
	builder, err := For(swap.Bitcoin(swap.BitcoinRegtest))
	require.NoError(t, err)

	redeemPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	refundPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	params := swap.HtlcParams{
		Ledger:         swap.Bitcoin(swap.BitcoinRegtest),
		Asset:          swap.BitcoinAsset(50000),
		RedeemIdentity: swap.BitcoinIdentity(redeemPriv.PubKey()),
		RefundIdentity: swap.BitcoinIdentity(refundPriv.PubKey()),
		Expiry:         600000,
		SecretHash:     secret.Hash(),
	}

	loc, err := builder.DeployLocator(params)
	require.NoError(t, err)
	require.NotEmpty(t, loc.WitnessScript)
	require.NotEmpty(t, loc.P2WSHAddress)
}

func TestForEthereum(t *testing.T) {
	builder, err := For(swap.Ethereum(5))
	require.NoError(t, err)

	secret, err := swap.NewSecret()
	require.NoError(t, err)

	params := swap.HtlcParams{
		Ledger:         swap.Ethereum(5),
		RedeemIdentity: swap.EthereumIdentity(common.HexToAddress("0x1111111111111111111111111111111111111111")),
		RefundIdentity: swap.EthereumIdentity(common.HexToAddress("0x2222222222222222222222222222222222222222")),
		Expiry:         999,
		SecretHash:     secret.Hash(),
	}

	loc, err := builder.DeployLocator(params)
	require.NoError(t, err)
	require.NotEmpty(t, loc.InitCode)
}

func TestForUnsupported(t *testing.T) {
	_, err := For(swap.Ledger{})
	require.ErrorIs(t, err, ErrUnsupportedLedger)
}
