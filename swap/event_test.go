package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyFoldOrder(t *testing.T) {
	secret, err := NewSecret()
	require.NoError(t, err)

	events := []Event{
		{Kind: EventKindProposed, Request: Request{SwapId: NewId()}},
		{Kind: EventKindAccepted, Response: AcceptResponse(Identity{}, Identity{})},
		{Kind: EventKindDeployed, Leg: LegAlpha},
		{Kind: EventKindFunded, Leg: LegAlpha, ActualAsset: BitcoinAsset(1000)},
		{Kind: EventKindDeployed, Leg: LegBeta},
		{Kind: EventKindFunded, Leg: LegBeta, ActualAsset: EtherAsset(nil)},
		{Kind: EventKindRedeemed, Leg: LegBeta, Secret: secret},
		{Kind: EventKindRedeemed, Leg: LegAlpha, Secret: secret},
	}

	var s SwapState
	for _, e := range events {
		s = Apply(s, e)
	}

	require.Equal(t, LedgerStateRedeemed, s.Alpha.Kind)
	require.Equal(t, LedgerStateRedeemed, s.Beta.Kind)
	require.Equal(t, SwapCommunicationAccepted, s.Communication.Kind)

	outcome, terminal := s.Outcome()
	require.True(t, terminal)
	require.Equal(t, SwapOutcomeSucceeded, outcome.Kind)
}

func TestApplyIsIdempotentUnderReplay(t *testing.T) {
	events := []Event{
		{Kind: EventKindProposed, Request: Request{SwapId: NewId()}},
		{Kind: EventKindDeployed, Leg: LegAlpha},
		{Kind: EventKindFunded, Leg: LegAlpha, ActualAsset: BitcoinAsset(500)},
	}

	replay := func(n int) SwapState {
		var s SwapState
		for _, e := range events[:n] {
			s = Apply(s, e)
		}
		return s
	}

	full := replay(len(events))
	again := replay(len(events))
	require.Equal(t, full, again, "replaying the same event prefix must yield the same state")
}

func TestApplyIncorrectlyFunded(t *testing.T) {
	var s SwapState
	s = Apply(s, Event{Kind: EventKindDeployed, Leg: LegAlpha})
	s = Apply(s, Event{
		Kind: EventKindIncorrectlyFunded, Leg: LegAlpha, ActualAsset: BitcoinAsset(1),
	})
	require.Equal(t, LedgerStateIncorrectlyFunded, s.Alpha.Kind)
	require.True(t, s.Alpha.IsTerminal())
}
