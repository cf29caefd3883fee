// Package swapexec drives one swap's action-table state machine: given
// the current swap.SwapState, it computes the single available action for
// the local role and executes it through a Wallet, one action per tick.
// The transition function itself (swap.Apply) lives in the swap package
// and is pure; this package supplies the effectful half — deciding what
// to do and doing it.
package swapexec

import (
	"time"

	"github.com/atomicswapd/swapd/swap"
)

// ActionKind enumerates what NextAction may ask the runner to do.
type ActionKind uint8

const (
	// ActionNone means wait: no action is available this tick.
	ActionNone ActionKind = iota
	ActionAcceptOrDecline
	ActionDeployAlpha
	ActionDeployBeta
	ActionRedeemAlpha
	ActionRedeemBeta
	ActionRefundAlpha
	ActionRefundBeta
)

// Action is the single available action for the local role this tick,
// along with the data needed to execute it.
type Action struct {
	Kind   ActionKind
	Secret swap.Secret
}

// NextAction computes the available action for role given the current
// SwapState and wall-clock time, applying the Alice/Bob action tables and
// the expiry guard: an expiry breach always takes precedence over a
// pending redeem, and Alice never submits a beta-redeem within
// safetyMargin of beta_expiry.
func NextAction(s swap.SwapState, role swap.Role, now time.Time, safetyMargin time.Duration) Action {
	if s.Failed {
		return Action{Kind: ActionNone}
	}

	if s.Communication.Kind == swap.SwapCommunicationDeclined {
		return Action{Kind: ActionNone}
	}
	if s.Communication.Kind == swap.SwapCommunicationProposed && role == swap.RoleBob {
		return Action{Kind: ActionAcceptOrDecline}
	}

	if role == swap.RoleAlice {
		return nextActionAlice(s, now, safetyMargin)
	}
	return nextActionBob(s, now, safetyMargin)
}

func nextActionAlice(s swap.SwapState, now time.Time, safetyMargin time.Duration) Action {
	alpha, beta := s.Alpha, s.Beta

	if alpha.Kind == swap.LedgerStateFunded && s.Communication.Request.AlphaExpiry.Passed(now) {
		return Action{Kind: ActionRefundAlpha}
	}

	switch alpha.Kind {
	case swap.LedgerStateNotDeployed:
		return Action{Kind: ActionDeployAlpha}
	case swap.LedgerStateIncorrectlyFunded:
		return Action{Kind: ActionNone}
	}

	switch beta.Kind {
	case swap.LedgerStateFunded:
		unsafe := s.Communication.Request.BetaExpiry.Time().Add(-safetyMargin).Before(now)
		if unsafe {
			return Action{Kind: ActionNone}
		}
		if secret, ok := aliceKnownSecret(s); ok {
			return Action{Kind: ActionRedeemBeta, Secret: secret}
		}
	}

	return Action{Kind: ActionNone}
}

func nextActionBob(s swap.SwapState, now time.Time, safetyMargin time.Duration) Action {
	alpha, beta := s.Alpha, s.Beta

	if beta.Kind == swap.LedgerStateFunded && s.Communication.Request.BetaExpiry.Passed(now) {
		return Action{Kind: ActionRefundBeta}
	}

	switch beta.Kind {
	case swap.LedgerStateNotDeployed:
		if alpha.Kind == swap.LedgerStateFunded {
			return Action{Kind: ActionDeployBeta}
		}
		return Action{Kind: ActionNone}
	case swap.LedgerStateIncorrectlyFunded:
		return Action{Kind: ActionNone}
	}

	if beta.Kind == swap.LedgerStateRedeemed && alpha.Kind == swap.LedgerStateFunded {
		return Action{Kind: ActionRedeemAlpha, Secret: beta.Secret}
	}

	return Action{Kind: ActionNone}
}

// aliceKnownSecret returns the secret Alice generated at the start of the
// swap. Unlike Bob, Alice never needs to extract it from an observed
// event; it is part of her own local state from the outset.
func aliceKnownSecret(s swap.SwapState) (swap.Secret, bool) {
	if s.LocalSecret != (swap.Secret{}) {
		return s.LocalSecret, true
	}
	return swap.Secret{}, false
}
