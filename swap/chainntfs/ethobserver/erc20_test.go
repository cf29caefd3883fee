package ethobserver

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransferAmount(t *testing.T) {
	amount := big.NewInt(123456789)
	data := make([]byte, 32)
	amount.FillBytes(data)

	got, err := decodeTransferAmount(data)
	require.NoError(t, err)
	require.Equal(t, 0, amount.Cmp(got))
}

func TestDecodeTransferAmountTooShort(t *testing.T) {
	_, err := decodeTransferAmount([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestTransferRecipient(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	topics := []common.Hash{
		transferEventSignature,
		common.Hash{},
		common.BytesToHash(addr.Bytes()),
	}

	got, err := transferRecipient(topics)
	require.NoError(t, err)
	require.Equal(t, addr, got)
}

func TestTransferRecipientMissingTopics(t *testing.T) {
	_, err := transferRecipient(nil)
	require.Error(t, err)
}
