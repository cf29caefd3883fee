package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHtlcParamsForDerivation(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)
	hash := secret.Hash()

	req := Request{
		SwapId:      NewId(),
		AlphaLedger: Bitcoin(BitcoinTestnet),
		BetaLedger:  Ethereum(5),
		AlphaAsset:  BitcoinAsset(100000),
		BetaAsset:   EtherAsset(nil),
		AlphaExpiry: 2000,
		BetaExpiry:  1000,
		SecretHash:  hash,
	}
	resp := AcceptResponse(Identity{}, Identity{})

	alpha := HtlcParamsFor(LegAlpha, req, resp)
	require.Equal(t, req.AlphaLedger, alpha.Ledger)
	require.Equal(t, req.AlphaExpiry, alpha.Expiry)
	require.Equal(t, hash, alpha.SecretHash)

	beta := HtlcParamsFor(LegBeta, req, resp)
	require.Equal(t, req.BetaLedger, beta.Ledger)
	require.Equal(t, req.BetaExpiry, beta.Expiry)
}
