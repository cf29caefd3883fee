package ethwallet

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// erc20ABIJSON describes only the transfer call this wallet issues to fund
// an ERC20-denominated HTLC leg, mirroring eth/template.go's own minimal,
// call-scoped ABI rather than pulling in a full ERC20 interface.
const erc20ABIJSON = `[
	{"type":"function","name":"transfer","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}]}
]`

var (
	erc20ABIOnce sync.Once
	erc20ABI     abi.ABI
	erc20ABIErr  error
)

func erc20TransferABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
		if erc20ABIErr != nil {
			erc20ABIErr = fmt.Errorf("parse erc20 abi: %w", erc20ABIErr)
		}
	})
	return erc20ABI, erc20ABIErr
}
