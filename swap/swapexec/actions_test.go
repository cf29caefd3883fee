package swapexec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func TestNextActionAliceDeploysAlphaFirst(t *testing.T) {
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind:    swap.SwapCommunicationAccepted,
			Request: swap.Request{AlphaExpiry: swap.ExpiryAt(time.Now().Add(time.Hour))},
		},
	}
	a := NextAction(s, swap.RoleAlice, time.Now(), swap.DefaultSafetyMargin)
	require.Equal(t, ActionDeployAlpha, a.Kind)
}

func TestNextActionAliceRedeemsBetaWhenBothFunded(t *testing.T) {
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind: swap.SwapCommunicationAccepted,
			Request: swap.Request{
				AlphaExpiry: swap.ExpiryAt(now.Add(4 * time.Hour)),
				BetaExpiry:  swap.ExpiryAt(now.Add(2 * time.Hour)),
			},
		},
		Alpha:       swap.LedgerState{Kind: swap.LedgerStateFunded},
		Beta:        swap.LedgerState{Kind: swap.LedgerStateFunded},
		LocalSecret: secret,
	}
	a := NextAction(s, swap.RoleAlice, now, 30*time.Minute)
	require.Equal(t, ActionRedeemBeta, a.Kind)
	require.Equal(t, secret, a.Secret)
}

func TestNextActionAliceWaitsInUnsafeWindow(t *testing.T) {
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind: swap.SwapCommunicationAccepted,
			Request: swap.Request{
				AlphaExpiry: swap.ExpiryAt(now.Add(4 * time.Hour)),
				BetaExpiry:  swap.ExpiryAt(now.Add(10 * time.Minute)),
			},
		},
		Alpha:       swap.LedgerState{Kind: swap.LedgerStateFunded},
		Beta:        swap.LedgerState{Kind: swap.LedgerStateFunded},
		LocalSecret: secret,
	}
	a := NextAction(s, swap.RoleAlice, now, 30*time.Minute)
	require.Equal(t, ActionNone, a.Kind)
}

func TestNextActionAliceRefundsAfterExpiry(t *testing.T) {
	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind:    swap.SwapCommunicationAccepted,
			Request: swap.Request{AlphaExpiry: swap.ExpiryAt(now.Add(-time.Minute))},
		},
		Alpha: swap.LedgerState{Kind: swap.LedgerStateFunded},
	}
	a := NextAction(s, swap.RoleAlice, now, swap.DefaultSafetyMargin)
	require.Equal(t, ActionRefundAlpha, a.Kind)
}

func TestNextActionBobAcceptsPending(t *testing.T) {
	s := swap.SwapState{Communication: swap.SwapCommunication{Kind: swap.SwapCommunicationProposed}}
	a := NextAction(s, swap.RoleBob, time.Now(), swap.DefaultSafetyMargin)
	require.Equal(t, ActionAcceptOrDecline, a.Kind)
}

func TestNextActionBobDeploysBetaAfterAlphaFunded(t *testing.T) {
	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind:    swap.SwapCommunicationAccepted,
			Request: swap.Request{BetaExpiry: swap.ExpiryAt(now.Add(2 * time.Hour))},
		},
		Alpha: swap.LedgerState{Kind: swap.LedgerStateFunded},
	}
	a := NextAction(s, swap.RoleBob, now, swap.DefaultSafetyMargin)
	require.Equal(t, ActionDeployBeta, a.Kind)
}

func TestNextActionBobRedeemsAlphaAfterBetaRedeemed(t *testing.T) {
	secret, err := swap.NewSecret()
	require.NoError(t, err)

	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind:    swap.SwapCommunicationAccepted,
			Request: swap.Request{BetaExpiry: swap.ExpiryAt(now.Add(2 * time.Hour))},
		},
		Alpha: swap.LedgerState{Kind: swap.LedgerStateFunded},
		Beta:  swap.LedgerState{Kind: swap.LedgerStateRedeemed, Secret: secret},
	}
	a := NextAction(s, swap.RoleBob, now, swap.DefaultSafetyMargin)
	require.Equal(t, ActionRedeemAlpha, a.Kind)
	require.Equal(t, secret, a.Secret)
}

func TestNextActionBobRefundsAfterBetaExpiry(t *testing.T) {
	now := time.Now()
	s := swap.SwapState{
		Communication: swap.SwapCommunication{
			Kind:    swap.SwapCommunicationAccepted,
			Request: swap.Request{BetaExpiry: swap.ExpiryAt(now.Add(-time.Minute))},
		},
		Beta: swap.LedgerState{Kind: swap.LedgerStateFunded},
	}
	a := NextAction(s, swap.RoleBob, now, swap.DefaultSafetyMargin)
	require.Equal(t, ActionRefundBeta, a.Kind)
}
