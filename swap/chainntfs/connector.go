// Package chainntfs turns a single HtlcParams and its eventual deploy
// location into the ordered event stream the swap machine consumes:
// Deployed, Funded (or IncorrectlyFunded), then exactly one of Redeemed or
// Refunded. The interface shape is adapted from the ChainNotifier
// abstraction used to decouple Lightning's channel state machine from any
// one chain-backend implementation; here the granularity is one HTLC's
// full lifecycle instead of a generic confirmation/spend registration.
package chainntfs

import (
	"context"

	"github.com/atomicswapd/swapd/swap"
)

// Connector is a trusted source of on-chain facts for one ledger. As with
// the notifier interfaces it is modeled on, the specification is
// intentionally general so it can be backed by a full node's RPC, an
// Electrum-style server, or a light client.
type Connector interface {
	// LatestHeight returns the current chain tip height (or, for
	// Ethereum, block number).
	LatestHeight(ctx context.Context) (uint64, error)

	// FindDeploy looks for the HTLC's deploy/fund transaction given its
	// parameters and (for Ethereum) the init code it should match. It
	// returns found=false, not an error, while the transaction has not
	// yet appeared.
	FindDeploy(ctx context.Context, params swap.HtlcParams, loc Locator) (DeployObservation, bool, error)

	// FindSpend looks for a transaction spending the HTLC, classifying
	// it as a redeem (secret revealed) or refund by branch selector or
	// calldata selector. It returns found=false, not an error, while no
	// spend has appeared.
	FindSpend(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator) (SpendObservation, bool, error)

	// BlockHash returns the block hash at a given height, used by the
	// observer to detect reorgs and by the replay helper to walk back
	// from a reported parent hash.
	BlockHash(ctx context.Context, height uint64) (BlockRef, error)
}

// Locator mirrors htlc.Locator without importing the htlc package, to
// avoid a dependency cycle between chainntfs and htlc's builders.
type Locator struct {
	WitnessScript []byte
	P2WSHAddress  string
	InitCode      []byte
}

// BlockRef identifies a block by height and hash, and (when known) its
// parent's hash, which the replay helper uses to detect a missed reorg
// between two polls.
type BlockRef struct {
	Height     uint64
	Hash       [32]byte
	ParentHash [32]byte
}

// DeployObservation reports the result of a successful FindDeploy.
type DeployObservation struct {
	HtlcLocation swap.HtlcLocator
	DeployTx     swap.TxLocator
	ActualAsset  swap.Asset
	// Correct reports whether ActualAsset matches the expected asset in
	// params; false means the observer should raise IncorrectlyFunded.
	Correct bool
	Block   BlockRef
}

// SpendObservation reports the result of a successful FindSpend.
type SpendObservation struct {
	Redeemed bool
	Secret   swap.Secret
	Tx       swap.TxLocator
	Block    BlockRef
}
