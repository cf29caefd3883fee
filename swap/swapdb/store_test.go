package swapdb

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRequest(t *testing.T, id swap.Id) swap.Request {
	t.Helper()
	refundPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return swap.Request{
		SwapId:              id,
		AlphaLedger:         swap.Bitcoin(swap.BitcoinMainnet),
		BetaLedger:          swap.Ethereum(1),
		AlphaAsset:          swap.BitcoinAsset(swap.BitcoinAmountFromSats(100000)),
		BetaAsset:           swap.EtherAsset(nil),
		AlphaRefundIdentity: swap.BitcoinIdentity(refundPriv.PubKey()),
		BetaRedeemIdentity:  swap.EthereumIdentity(common.HexToAddress("0x2222222222222222222222222222222222222222")),
		AlphaExpiry:         swap.ExpiryAt(time.Unix(2000, 0)),
		BetaExpiry:          swap.ExpiryAt(time.Unix(1000, 0)),
		SecretHash:          swap.SecretHash{0xaa},
	}
}

func TestStoreLoadFoldsEventsInOrder(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	id := swap.NewId()

	req := testRequest(t, id)
	require.NoError(t, store.Append(ctx, id, swap.Event{Kind: swap.EventKindProposed, Request: req}))

	redeemPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	resp := swap.AcceptResponse(
		swap.BitcoinIdentity(redeemPriv.PubKey()),
		swap.EthereumIdentity(common.HexToAddress("0x1111111111111111111111111111111111111111")),
	)
	require.NoError(t, store.Append(ctx, id, swap.Event{
		Kind: swap.EventKindAccepted, Request: req, Response: resp,
	}))

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, swap.SwapCommunicationAccepted, state.Communication.Kind)
	require.Equal(t, req.SwapId, state.Communication.Request.SwapId)
}

func TestStoreAppendIsIdempotentPerKindAndLeg(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	id := swap.NewId()

	deploy := swap.Event{
		Kind:         swap.EventKindDeployed,
		Leg:          swap.LegAlpha,
		HtlcLocation: swap.HtlcLocator{EthereumContract: [20]byte{1}},
	}
	require.NoError(t, store.Append(ctx, id, deploy))
	require.NoError(t, store.Append(ctx, id, deploy))
	require.NoError(t, store.Append(ctx, id, deploy))

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, swap.LedgerStateDeployed, state.Alpha.Kind)

	// A Deployed event for the other leg is a distinct (kind, leg) pair and
	// must not be suppressed by the alpha leg's index entry.
	require.NoError(t, store.Append(ctx, id, swap.Event{
		Kind:         swap.EventKindDeployed,
		Leg:          swap.LegBeta,
		HtlcLocation: swap.HtlcLocator{EthereumContract: [20]byte{2}},
	}))
	state, err = store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, swap.LedgerStateDeployed, state.Beta.Kind)
}

func TestStoreLocalSecretAndRole(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	id := swap.NewId()

	secret, err := swap.NewSecret()
	require.NoError(t, err)
	require.NoError(t, store.PutLocalSecret(ctx, id, swap.RoleAlice, secret))

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, swap.RoleAlice, state.Role)
	require.Equal(t, secret, state.LocalSecret)
}

func TestStoreMarkFailed(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()
	id := swap.NewId()

	require.NoError(t, store.MarkFailed(ctx, id, "wallet exhausted retries"))

	state, err := store.Load(ctx, id)
	require.NoError(t, err)
	require.True(t, state.Failed)
	require.Equal(t, "wallet exhausted retries", state.FailReason)

	outcome, terminal := state.Outcome()
	require.True(t, terminal)
	require.Equal(t, swap.SwapOutcomeFailed, outcome.Kind)
}

func TestStoreListIds(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	idA, idB := swap.NewId(), swap.NewId()
	require.NoError(t, store.Append(ctx, idA, swap.Event{Kind: swap.EventKindProposed, Request: testRequest(t, idA)}))
	require.NoError(t, store.Append(ctx, idB, swap.Event{Kind: swap.EventKindProposed, Request: testRequest(t, idB)}))

	ids, err := store.ListIds(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []swap.Id{idA, idB}, ids)
}

func TestStoreLoadUnknownSwap(t *testing.T) {
	store := NewStore(openTestDB(t))
	_, err := store.Load(context.Background(), swap.NewId())
	require.ErrorIs(t, err, swap.ErrUnknownSwap)
}

func TestStoreListActiveSwapsExcludesCompletedAndFailed(t *testing.T) {
	store := NewStore(openTestDB(t))
	ctx := context.Background()

	idActive, idCompleted, idFailed := swap.NewId(), swap.NewId(), swap.NewId()
	for _, id := range []swap.Id{idActive, idCompleted, idFailed} {
		require.NoError(t, store.Append(ctx, id, swap.Event{Kind: swap.EventKindProposed, Request: testRequest(t, id)}))
	}

	require.NoError(t, store.MarkCompleted(ctx, idCompleted, time.Unix(12345, 0)))
	require.NoError(t, store.MarkFailed(ctx, idFailed, "wallet exhausted retries"))

	active, err := store.ListActiveSwaps(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []swap.Id{idActive}, active)

	all, err := store.ListIds(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []swap.Id{idActive, idCompleted, idFailed}, all)
}
