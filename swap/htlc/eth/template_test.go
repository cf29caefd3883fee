package eth

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func testParams() swap.HtlcParams {
	secret := swap.Secret{0x01, 0x02, 0x03}
	return swap.HtlcParams{
		Ledger:         swap.Ethereum(5),
		Asset:          swap.EtherAsset(big.NewInt(1_000_000_000_000_000_000)),
		RedeemIdentity: swap.EthereumIdentity(common.HexToAddress("0x1111111111111111111111111111111111111111")),
		RefundIdentity: swap.EthereumIdentity(common.HexToAddress("0x2222222222222222222222222222222222222222")),
		Expiry:         123456,
		SecretHash:     secret.Hash(),
	}
}

func TestInitCodeSplicesParams(t *testing.T) {
	params := testParams()

	code, err := InitCode(params)
	require.NoError(t, err)
	require.Len(t, code, len(deployedTemplate))

	gotRedeemer := common.BytesToAddress(code[offsetRedeemer : offsetRedeemer+paramSlotLen])
	require.Equal(t, params.RedeemIdentity.EthereumAddress, gotRedeemer)

	gotRefunder := common.BytesToAddress(code[offsetRefunder : offsetRefunder+paramSlotLen])
	require.Equal(t, params.RefundIdentity.EthereumAddress, gotRefunder)

	gotHash := code[offsetSecretHash : offsetSecretHash+paramSlotLen]
	require.Equal(t, params.SecretHash[:], gotHash)
}

func TestInitCodeRequiresAddresses(t *testing.T) {
	params := testParams()
	params.RedeemIdentity = swap.Identity{}

	_, err := InitCode(params)
	require.Error(t, err)
}

func TestRedeemRefundCalldata(t *testing.T) {
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	redeemData, err := RedeemCalldata(secret)
	require.NoError(t, err)
	require.NotEmpty(t, redeemData)

	refundData, err := RefundCalldata()
	require.NoError(t, err)
	require.NotEmpty(t, refundData)

	require.NotEqual(t, redeemData[:4], refundData[:4], "selectors must differ")
}
