// Package negotiate implements the one-round-trip Request/Response
// handshake: Bob's acceptance policy, and the peer transport that carries
// the handshake between the two daemons.
package negotiate

import (
	"context"
	"time"

	"github.com/atomicswapd/swapd/swap"
)

// BalanceChecker reports the local wallet's balance on `ledger` of the
// kind of asset `asset` names, used by the default Policy to reject a
// Request the local wallet cannot fund.
type BalanceChecker interface {
	Balance(ctx context.Context, ledger swap.Ledger, asset swap.Asset) (swap.Asset, error)
}

// Policy decides how Bob responds to an incoming Request. The default
// implementation checks ledger support, wallet balance, and expiry
// ordering; an operator may substitute a stricter or more permissive
// Policy (e.g. one that also checks an exchange-rate bound).
type Policy interface {
	Evaluate(ctx context.Context, req swap.Request) (swap.DeclineReason, bool)
}

// DefaultPolicy is the policy this daemon applies out of the box.
type DefaultPolicy struct {
	Wallets      map[swap.LedgerKind]BalanceChecker
	SafetyMargin time.Duration
}

// NewDefaultPolicy builds a DefaultPolicy with the given per-ledger-kind
// balance checkers.
func NewDefaultPolicy(wallets map[swap.LedgerKind]BalanceChecker) *DefaultPolicy {
	return &DefaultPolicy{Wallets: wallets, SafetyMargin: swap.DefaultSafetyMargin}
}

// Evaluate returns (reason, ok). ok is true when the Request should be
// accepted; reason is populated only when ok is false.
func (p *DefaultPolicy) Evaluate(ctx context.Context, req swap.Request) (swap.DeclineReason, bool) {
	if req.AlphaAsset.IsZero() || req.BetaAsset.IsZero() {
		return swap.DeclineReasonUnsupportedLedgerPair, false
	}
	if req.AlphaLedger.Kind == req.BetaLedger.Kind {
		return swap.DeclineReasonUnsupportedLedgerPair, false
	}

	if err := swap.CheckExpiries(req.AlphaExpiry, req.BetaExpiry, p.SafetyMargin); err != nil {
		return swap.DeclineReasonBadExpiries, false
	}

	checker, ok := p.Wallets[req.BetaLedger.Kind]
	if !ok {
		return swap.DeclineReasonUnsupportedLedgerPair, false
	}
	available, err := checker.Balance(ctx, req.BetaLedger, req.BetaAsset)
	if err != nil {
		return swap.DeclineReasonUnspecified, false
	}
	if !coversBeta(available, req.BetaAsset) {
		return swap.DeclineReasonInsufficientFunds, false
	}

	return swap.DeclineReason(0), true
}

func coversBeta(available, required swap.Asset) bool {
	switch required.Kind {
	case swap.AssetKindBitcoin:
		return available.Sats >= required.Sats
	case swap.AssetKindEther, swap.AssetKindERC20:
		if available.WeiAmount == nil || required.WeiAmount == nil {
			return false
		}
		return available.WeiAmount.Cmp(required.WeiAmount) >= 0
	default:
		return false
	}
}
