package swapexec

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/clock"
	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/ticker"
)

// fakeConnector reports one deploy (correctly funded) on its first poll and
// never reports a spend, so a Runner watching it should reach
// LedgerStateFunded and then sit in awaitSpend until cancelled.
type fakeConnector struct {
	deployed bool
}

func (c *fakeConnector) LatestHeight(ctx context.Context) (uint64, error) { return 1, nil }

func (c *fakeConnector) FindDeploy(
	ctx context.Context, params swap.HtlcParams, loc chainntfs.Locator,
) (chainntfs.DeployObservation, bool, error) {
	if c.deployed {
		return chainntfs.DeployObservation{}, false, nil
	}
	c.deployed = true
	return chainntfs.DeployObservation{
		Correct:     true,
		ActualAsset: params.Asset,
		Block:       chainntfs.BlockRef{Height: 1},
	}, true, nil
}

func (c *fakeConnector) FindSpend(
	ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator,
) (chainntfs.SpendObservation, bool, error) {
	return chainntfs.SpendObservation{}, false, nil
}

func (c *fakeConnector) BlockHash(ctx context.Context, height uint64) (chainntfs.BlockRef, error) {
	return chainntfs.BlockRef{Height: height}, nil
}

func TestRunnerObservesDeployAndFundFromConnector(t *testing.T) {
	store := newFakeStore()
	id := swap.NewId()

	redeemKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	refundKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	expiry := swap.ExpiryAt(time.Now().Add(time.Hour))
	alpha := swap.HtlcParams{
		Ledger:         swap.Bitcoin(swap.BitcoinRegtest),
		Asset:          swap.BitcoinAsset(100000),
		RedeemIdentity: swap.BitcoinIdentity(redeemKey.PubKey()),
		RefundIdentity: swap.BitcoinIdentity(refundKey.PubKey()),
		Expiry:         expiry,
		SecretHash:     swap.SecretHash{1, 2, 3},
	}

	// beta lives on a different ledger kind than alpha and has no
	// registered Connector, so only alpha's leg is watched; this keeps the
	// single fakeConnector instance above single-goroutine, since it isn't
	// safe for concurrent use from two legs at once.
	beta := swap.HtlcParams{Ledger: swap.Ethereum(1337)}

	req := swap.Request{SwapId: id, AlphaExpiry: expiry, BetaExpiry: expiry}
	store.states[id] = swap.SwapState{
		Communication: swap.SwapCommunication{Kind: swap.SwapCommunicationAccepted, Request: req},
	}

	connectors := map[swap.LedgerKind]chainntfs.Connector{swap.LedgerKindBitcoin: &fakeConnector{}}
	wallets := map[swap.LedgerKind]Wallet{swap.LedgerKindEthereum: &fakeWallet{}}

	runner := NewRunner(id, swap.RoleBob, store, wallets, connectors, alpha, beta)
	runner.Clock = clock.NewTestClock(time.Now())
	runner.Ticker = ticker.NewMock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	require.Eventually(t, func() bool {
		state, err := store.Load(ctx, id)
		return err == nil && state.Alpha.Kind == swap.LedgerStateFunded
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not exit after context cancellation")
	}
}
