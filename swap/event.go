package swap

// EventKind enumerates every event the observer can emit for one leg, and
// every event the negotiation layer emits for the communication half of
// SwapState. The store indexes each swap's saved records by (EventKind, Leg) to
// make saves idempotent: the same event observed twice folds to the same
// state, so a duplicate save is a no-op, not an error surfaced upward.
type EventKind uint8

const (
	EventKindUnknown EventKind = iota

	EventKindProposed
	EventKindAccepted
	EventKindDeclined

	EventKindDeployed
	EventKindFunded
	EventKindIncorrectlyFunded
	EventKindRedeemed
	EventKindRefunded
)

func (k EventKind) String() string {
	switch k {
	case EventKindProposed:
		return "proposed"
	case EventKindAccepted:
		return "accepted"
	case EventKindDeclined:
		return "declined"
	case EventKindDeployed:
		return "deployed"
	case EventKindFunded:
		return "funded"
	case EventKindIncorrectlyFunded:
		return "incorrectly_funded"
	case EventKindRedeemed:
		return "redeemed"
	case EventKindRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Event is one fact folded into SwapState by Apply. Exactly the fields
// relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind EventKind
	Leg  Leg

	Request  Request
	Response Response

	HtlcLocation HtlcLocator
	DeployTx     TxLocator
	FundTx       TxLocator
	ActualAsset  Asset
	Secret       Secret
	RedeemTx     TxLocator
	RefundTx     TxLocator
}

// Apply folds a single Event into a SwapState, producing the next
// SwapState. It is a pure function: current SwapState always equals
// fold(Apply, initial, events-in-order), and replaying any prefix of a
// swap's observed events through Apply yields the same SwapState every
// time.
func Apply(s SwapState, e Event) SwapState {
	switch e.Kind {
	case EventKindProposed:
		s.Communication = SwapCommunication{Kind: SwapCommunicationProposed, Request: e.Request}
	case EventKindAccepted:
		s.Communication = SwapCommunication{
			Kind: SwapCommunicationAccepted, Request: e.Request, Response: e.Response,
		}
	case EventKindDeclined:
		s.Communication = SwapCommunication{
			Kind: SwapCommunicationDeclined, Request: e.Request, Response: e.Response,
		}
	case EventKindDeployed:
		leg := applyDeployed(legState(s, e.Leg), e)
		s = setLeg(s, e.Leg, leg)
	case EventKindFunded:
		leg := applyFunded(legState(s, e.Leg), e)
		s = setLeg(s, e.Leg, leg)
	case EventKindIncorrectlyFunded:
		leg := legState(s, e.Leg)
		leg.Kind = LedgerStateIncorrectlyFunded
		leg.ActualAsset = e.ActualAsset
		s = setLeg(s, e.Leg, leg)
	case EventKindRedeemed:
		leg := legState(s, e.Leg)
		leg.Kind = LedgerStateRedeemed
		leg.Secret = e.Secret
		leg.RedeemTx = e.RedeemTx
		s = setLeg(s, e.Leg, leg)
	case EventKindRefunded:
		leg := legState(s, e.Leg)
		leg.Kind = LedgerStateRefunded
		leg.RefundTx = e.RefundTx
		s = setLeg(s, e.Leg, leg)
	}
	return s
}

func applyDeployed(leg LedgerState, e Event) LedgerState {
	leg.Kind = LedgerStateDeployed
	leg.HtlcLocation = e.HtlcLocation
	leg.DeployTx = e.DeployTx
	return leg
}

func applyFunded(leg LedgerState, e Event) LedgerState {
	leg.Kind = LedgerStateFunded
	leg.FundedAsset = e.ActualAsset
	leg.FundTx = e.FundTx
	if leg.HtlcLocation == (HtlcLocator{}) {
		leg.HtlcLocation = e.HtlcLocation
	}
	return leg
}

func legState(s SwapState, leg Leg) LedgerState {
	if leg == LegAlpha {
		return s.Alpha
	}
	return s.Beta
}

func setLeg(s SwapState, leg Leg, v LedgerState) SwapState {
	if leg == LegAlpha {
		s.Alpha = v
	} else {
		s.Beta = v
	}
	return s
}
