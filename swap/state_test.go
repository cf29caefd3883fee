package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwapStateOutcomeInProgress(t *testing.T) {
	s := SwapState{
		Communication: SwapCommunication{Kind: SwapCommunicationAccepted},
		Alpha:         LedgerState{Kind: LedgerStateFunded},
		Beta:          LedgerState{Kind: LedgerStateFunded},
	}
	_, terminal := s.Outcome()
	require.False(t, terminal, "swap with both legs still funded is not terminal")
}

func TestSwapStateOutcomeSucceeded(t *testing.T) {
	s := SwapState{
		Communication: SwapCommunication{Kind: SwapCommunicationAccepted},
		Alpha:         LedgerState{Kind: LedgerStateRedeemed},
		Beta:          LedgerState{Kind: LedgerStateRedeemed},
	}
	outcome, terminal := s.Outcome()
	require.True(t, terminal)
	require.Equal(t, SwapOutcomeSucceeded, outcome.Kind)
}

func TestSwapStateOutcomeLossCase(t *testing.T) {
	s := SwapState{
		Communication: SwapCommunication{Kind: SwapCommunicationAccepted},
		Alpha:         LedgerState{Kind: LedgerStateRedeemed},
		Beta:          LedgerState{Kind: LedgerStateRefunded},
	}
	outcome, terminal := s.Outcome()
	require.True(t, terminal)
	require.Equal(t, SwapOutcomeAlphaRedeemedBetaRefunded, outcome.Kind)
}

func TestSwapStateOutcomeDeclined(t *testing.T) {
	s := SwapState{
		Communication: SwapCommunication{Kind: SwapCommunicationDeclined},
	}
	outcome, terminal := s.Outcome()
	require.True(t, terminal)
	require.Equal(t, SwapOutcomeDeclined, outcome.Kind)
}

func TestSwapStateOutcomeFailed(t *testing.T) {
	s := SwapState{Failed: true, FailReason: "store corruption"}
	outcome, terminal := s.Outcome()
	require.True(t, terminal)
	require.Equal(t, SwapOutcomeFailed, outcome.Kind)
	require.Equal(t, "store corruption", outcome.Reason)
}
