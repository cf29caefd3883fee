package swapexec

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/atomicswapd/swapd/clock"
	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/ticker"
)

// Store is the subset of swapdb's persistence surface the runner needs:
// load the current fold, append new events idempotently, and retire a
// swap from the active index once it reaches a terminal outcome.
type Store interface {
	Load(ctx context.Context, id swap.Id) (swap.SwapState, error)
	Append(ctx context.Context, id swap.Id, e swap.Event) error
	MarkFailed(ctx context.Context, id swap.Id, reason string) error
	MarkCompleted(ctx context.Context, id swap.Id, completedAt time.Time) error
}

// WalletAttemptLimit bounds how many times the runner retries a failed
// wallet action before giving up and marking the swap Failed. Observer
// errors have no such limit: the chain is always the eventual source of
// truth, so watchLeg restarts a leg's observer with exponential backoff
// after every Connector error, indefinitely.
const WalletAttemptLimit = 8

// Runner drives a single swap's tick loop: reload state, compute the
// available action, execute it against a Wallet, and append whatever
// event results. One Runner per swap, supervised by a Manager.
type Runner struct {
	SwapId       swap.Id
	Role         swap.Role
	Store        Store
	Wallets      map[swap.LedgerKind]Wallet
	Connectors   map[swap.LedgerKind]chainntfs.Connector
	TickEvery    time.Duration
	SafetyMargin time.Duration
	Clock        clock.Clock
	Ticker       ticker.Ticker

	legs legParams
}

// legParams supplies the alpha/beta HtlcParams the runner needs to pass
// to a Wallet; these are fixed once negotiation completes and don't
// change for the life of the swap.
type legParams struct {
	alpha, beta swap.HtlcParams
}

// NewRunner builds a Runner for an already-negotiated swap. connectors
// supplies the chain observers that feed Deployed/Funded/Redeemed/Refunded
// events back into store; a ledger kind with no entry simply isn't watched
// (useful in tests that drive the store directly).
func NewRunner(
	id swap.Id, role swap.Role, store Store, wallets map[swap.LedgerKind]Wallet,
	connectors map[swap.LedgerKind]chainntfs.Connector, alpha, beta swap.HtlcParams,
) *Runner {
	return &Runner{
		SwapId:       id,
		Role:         role,
		Store:        store,
		Wallets:      wallets,
		Connectors:   connectors,
		TickEvery:    10 * time.Second,
		SafetyMargin: swap.DefaultSafetyMargin,
		Clock:        clock.NewDefaultClock(),
		legs:         legParams{alpha: alpha, beta: beta},
	}
}

// Run ticks until the swap reaches a terminal SwapOutcome or ctx is
// cancelled. It also starts one chain observer per watched leg for the
// life of the call, appending whatever Deployed/Funded/Redeemed/Refunded
// events they discover; the tick loop itself only drives the wallet-action
// half.
func (r *Runner) Run(ctx context.Context) error {
	tick := r.Ticker
	if tick == nil {
		tick = ticker.New(r.TickEvery)
	}
	tick.Start()
	defer tick.Stop()

	stopObserving := r.observe(ctx)
	defer stopObserving()

	for {
		state, err := r.Store.Load(ctx, r.SwapId)
		if err != nil {
			return err
		}
		if outcome, terminal := state.Outcome(); terminal {
			log.Debugf("swap %s reached terminal outcome %v, runner exiting", r.SwapId, outcome.Kind)
			if outcome.Kind != swap.SwapOutcomeFailed {
				if err := r.Store.MarkCompleted(ctx, r.SwapId, r.Clock.Now()); err != nil {
					log.Errorf("swap %s: mark completed: %v", r.SwapId, err)
				}
			}
			return nil
		}

		if err := r.tick(ctx, state); err != nil && swap.IsFatal(err) {
			log.Errorf("swap %s failed: %v", r.SwapId, err)
			_ = r.Store.MarkFailed(ctx, r.SwapId, err.Error())
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.Ticks():
		}
	}
}

func (r *Runner) tick(ctx context.Context, state swap.SwapState) error {
	action := NextAction(state, r.Role, r.Clock.Now(), r.SafetyMargin)

	switch action.Kind {
	case ActionNone, ActionAcceptOrDecline:
		// Accept/Decline is driven by the negotiation transport's
		// RequestHandler, not the tick loop; by the time a Runner
		// exists for this swap, negotiation has already completed.
		return nil
	case ActionDeployAlpha:
		return r.withRetry(ctx, func() error { return r.deploy(ctx, swap.LegAlpha) })
	case ActionDeployBeta:
		return r.withRetry(ctx, func() error { return r.deploy(ctx, swap.LegBeta) })
	case ActionRedeemBeta:
		return r.withRetry(ctx, func() error { return r.redeem(ctx, state, swap.LegBeta, action.Secret) })
	case ActionRedeemAlpha:
		return r.withRetry(ctx, func() error { return r.redeem(ctx, state, swap.LegAlpha, action.Secret) })
	case ActionRefundAlpha:
		return r.withRetry(ctx, func() error { return r.refund(ctx, state, swap.LegAlpha) })
	case ActionRefundBeta:
		return r.withRetry(ctx, func() error { return r.refund(ctx, state, swap.LegBeta) })
	default:
		return nil
	}
}

func (r *Runner) paramsFor(leg swap.Leg) swap.HtlcParams {
	if leg == swap.LegAlpha {
		return r.legs.alpha
	}
	return r.legs.beta
}

func (r *Runner) walletFor(leg swap.Leg) Wallet {
	return r.Wallets[r.paramsFor(leg).Ledger.Kind]
}

func (r *Runner) deploy(ctx context.Context, leg swap.Leg) error {
	params := r.paramsFor(leg)
	loc, tx, err := r.walletFor(leg).Deploy(ctx, params)
	if err != nil {
		log.Warnf("swap %s: deploy %v failed: %v", r.SwapId, leg, err)
		return err
	}
	log.Infof("swap %s: deployed %v htlc %v", r.SwapId, leg, loc)
	return r.Store.Append(ctx, r.SwapId, swap.Event{
		Kind: swap.EventKindDeployed, Leg: leg, HtlcLocation: loc, DeployTx: tx,
	})
}

func (r *Runner) redeem(ctx context.Context, state swap.SwapState, leg swap.Leg, secret swap.Secret) error {
	params := r.paramsFor(leg)
	htlc := legState(state, leg).HtlcLocation
	tx, err := r.walletFor(leg).Redeem(ctx, params, htlc, secret)
	if err != nil {
		return err
	}
	return r.Store.Append(ctx, r.SwapId, swap.Event{
		Kind: swap.EventKindRedeemed, Leg: leg, Secret: secret, RedeemTx: tx,
	})
}

func (r *Runner) refund(ctx context.Context, state swap.SwapState, leg swap.Leg) error {
	params := r.paramsFor(leg)
	htlc := legState(state, leg).HtlcLocation
	tx, err := r.walletFor(leg).Refund(ctx, params, htlc)
	if err != nil {
		return err
	}
	return r.Store.Append(ctx, r.SwapId, swap.Event{
		Kind: swap.EventKindRefunded, Leg: leg, RefundTx: tx,
	})
}

func legState(s swap.SwapState, leg swap.Leg) swap.LedgerState {
	if leg == swap.LegAlpha {
		return s.Alpha
	}
	return s.Beta
}

// withRetry retries a wallet action with exponential backoff up to
// WalletAttemptLimit times. Exhausting the limit returns the action's
// error wrapped as ErrFatal, which the caller surfaces via
// Store.MarkFailed; this is the only path by which a wallet-side failure
// becomes visible outside the runner.
func (r *Runner) withRetry(ctx context.Context, action func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(), WalletAttemptLimit,
	), ctx)

	err := backoff.Retry(action, policy)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", swap.ErrFatal, err)
}
