package ethwallet

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestWalletAddressMatchesKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	w := New(nil, big.NewInt(1), key)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), w.address())
}

func TestErc20TransferABIPacksSelector(t *testing.T) {
	parsed, err := erc20TransferABI()
	require.NoError(t, err)

	to := crypto.PubkeyToAddress(mustKey(t).PublicKey)
	data, err := parsed.Pack("transfer", to, big.NewInt(500))
	require.NoError(t, err)

	// transfer(address,uint256) selector is fixed by its signature.
	require.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
}

func TestErc20TransferABICached(t *testing.T) {
	first, err := erc20TransferABI()
	require.NoError(t, err)
	second, err := erc20TransferABI()
	require.NoError(t, err)
	require.Equal(t, first.Methods, second.Methods)
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}
