package swapexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/clock"
	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/ticker"
)

type fakeWallet struct {
	deployLoc swap.HtlcLocator
	deployTx  swap.TxLocator
	deployErr error

	deployCalls int
}

func (w *fakeWallet) Deploy(ctx context.Context, params swap.HtlcParams) (swap.HtlcLocator, swap.TxLocator, error) {
	w.deployCalls++
	return w.deployLoc, w.deployTx, w.deployErr
}

func (w *fakeWallet) Redeem(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator, secret swap.Secret) (swap.TxLocator, error) {
	return swap.TxLocator{}, nil
}

func (w *fakeWallet) Refund(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator) (swap.TxLocator, error) {
	return swap.TxLocator{}, nil
}

func TestRunnerDeploysAlphaThenExitsOnCancel(t *testing.T) {
	store := newFakeStore()
	id := swap.NewId()

	req := swap.Request{
		SwapId:      id,
		AlphaExpiry: swap.ExpiryAt(time.Unix(1000, 0)),
		BetaExpiry:  swap.ExpiryAt(time.Unix(2000, 0)),
	}
	store.states[id] = swap.SwapState{
		Communication: swap.SwapCommunication{Kind: swap.SwapCommunicationAccepted, Request: req},
	}

	wallet := &fakeWallet{deployLoc: swap.HtlcLocator{EthereumContract: [20]byte{9}}}
	wallets := map[swap.LedgerKind]Wallet{swap.LedgerKindBitcoin: wallet}

	runner := NewRunner(id, swap.RoleAlice, store, wallets, nil, swap.HtlcParams{Ledger: swap.Bitcoin(swap.BitcoinMainnet)}, swap.HtlcParams{})
	runner.Clock = clock.NewTestClock(time.Unix(500, 0))
	mockTicker := ticker.NewMock()
	runner.Ticker = mockTicker

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	mockTicker.Tick(time.Unix(501, 0))

	require.Eventually(t, func() bool {
		return wallet.deployCalls >= 1
	}, time.Second, time.Millisecond)

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, swap.LedgerStateDeployed, state.Alpha.Kind)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not exit after context cancellation")
	}
}

func TestRunnerExitsImmediatelyOnTerminalState(t *testing.T) {
	store := newFakeStore()
	id := swap.NewId()
	store.states[id] = swap.SwapState{
		Communication: swap.SwapCommunication{Kind: swap.SwapCommunicationDeclined},
	}

	runner := NewRunner(id, swap.RoleBob, store, nil, nil, swap.HtlcParams{}, swap.HtlcParams{})
	runner.Ticker = ticker.NewMock()

	err := runner.Run(context.Background())
	require.NoError(t, err)
}
