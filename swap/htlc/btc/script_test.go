package btc

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func testParams(t *testing.T) swap.HtlcParams {
	t.Helper()

	redeemPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	refundPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	secret, err := swap.NewSecret()
	require.NoError(t, err)

	return swap.HtlcParams{
		Ledger:         swap.Bitcoin(swap.BitcoinRegtest),
		Asset:          swap.BitcoinAsset(100000),
		RedeemIdentity: swap.BitcoinIdentity(redeemPriv.PubKey()),
		RefundIdentity: swap.BitcoinIdentity(refundPriv.PubKey()),
		Expiry:         600000,
		SecretHash:     secret.Hash(),
	}
}

func TestWitnessScriptDeterministic(t *testing.T) {
	params := testParams(t)

	s1, err := WitnessScript(params)
	require.NoError(t, err)
	s2, err := WitnessScript(params)
	require.NoError(t, err)
	require.Equal(t, s1, s2, "script construction must be a pure function of params")
	require.NotEmpty(t, s1)
}

func TestWitnessScriptRequiresBothKeys(t *testing.T) {
	params := testParams(t)
	params.RefundIdentity = swap.Identity{}

	_, err := WitnessScript(params)
	require.Error(t, err)
}

func TestP2WSHAddressDeterministic(t *testing.T) {
	params := testParams(t)
	script, err := WitnessScript(params)
	require.NoError(t, err)

	addr1, err := P2WSHAddress(script, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	addr2, err := P2WSHAddress(script, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Equal(t, addr1.String(), addr2.String())
}
