package ethobserver

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// decodeTransferAmount extracts the uint256 value from an ERC-20
// Transfer(address,address,uint256) log's ABI-encoded data field. The
// two indexed addresses live in the log's Topics, not Data, so Data holds
// exactly the one 32-byte word.
func decodeTransferAmount(data []byte) (*big.Int, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("transfer log data too short: got %d bytes, want >= 32", len(data))
	}
	return new(big.Int).SetBytes(data[:32]), nil
}

// transferRecipient extracts the `to` address from a Transfer log's
// second indexed topic.
func transferRecipient(topics []common.Hash) (common.Address, error) {
	if len(topics) < 3 {
		return common.Address{}, fmt.Errorf("transfer log missing topics: got %d, want 3", len(topics))
	}
	return common.BytesToAddress(topics[2].Bytes()), nil
}
