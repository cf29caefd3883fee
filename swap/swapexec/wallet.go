package swapexec

import (
	"context"

	"github.com/atomicswapd/swapd/swap"
)

// Wallet performs the wallet-side half of an Action: deploying an HTLC,
// redeeming it, or refunding it. One implementation exists per ledger
// kind (swap/chainwallet/btcwallet, swap/chainwallet/ethwallet); the
// Runner is wallet-agnostic.
type Wallet interface {
	Deploy(ctx context.Context, params swap.HtlcParams) (swap.HtlcLocator, swap.TxLocator, error)
	Redeem(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator, secret swap.Secret) (swap.TxLocator, error)
	Refund(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator) (swap.TxLocator, error)
}
