package swap

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
)

// TxLocator identifies an on-chain transaction the machine has observed,
// in whichever form is native to the ledger: a Bitcoin txid or an Ethereum
// transaction hash. Only one field is populated, matching the owning
// LedgerState's ledger.
type TxLocator struct {
	BitcoinTxid  chainhash.Hash
	EthereumTxid common.Hash
}

// HtlcLocator identifies where an HTLC lives once deployed: a Bitcoin
// outpoint (the P2WSH output itself doubles as the HTLC) or an Ethereum
// contract address.
type HtlcLocator struct {
	BitcoinOutpoint  *BitcoinOutpoint
	EthereumContract common.Address
}

// BitcoinOutpoint names a specific output of a specific transaction.
type BitcoinOutpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// LedgerStateKind tags which variant of the LedgerState fold a given value
// represents.
type LedgerStateKind uint8

const (
	LedgerStateNotDeployed LedgerStateKind = iota
	LedgerStateDeployed
	LedgerStateFunded
	LedgerStateRedeemed
	LedgerStateRefunded
	LedgerStateIncorrectlyFunded
)

func (k LedgerStateKind) String() string {
	switch k {
	case LedgerStateNotDeployed:
		return "not_deployed"
	case LedgerStateDeployed:
		return "deployed"
	case LedgerStateFunded:
		return "funded"
	case LedgerStateRedeemed:
		return "redeemed"
	case LedgerStateRefunded:
		return "refunded"
	case LedgerStateIncorrectlyFunded:
		return "incorrectly_funded"
	default:
		return "unknown"
	}
}

// LedgerState is one side's observation state machine:
//
//	NotDeployed -> Deployed{HtlcLocation, DeployTx}
//	            -> Funded{Asset, FundTx}
//	            -> Redeemed{Secret, RedeemTx} | Refunded{RefundTx} | IncorrectlyFunded{ActualAsset}
//
// For asset classes where deployment and funding are a single on-chain
// event (a native Bitcoin P2WSH output, a native Ether HTLC contract
// constructor call that also transfers value), the NotDeployed->Funded
// transition happens directly and Deployed fields are populated alongside
// it rather than as a separate prior transition.
type LedgerState struct {
	Kind LedgerStateKind

	HtlcLocation HtlcLocator
	DeployTx     TxLocator

	FundedAsset Asset
	FundTx      TxLocator

	Secret    Secret
	RedeemTx  TxLocator
	RefundTx  TxLocator
	ActualAsset Asset
}

func (s LedgerState) IsTerminal() bool {
	switch s.Kind {
	case LedgerStateRedeemed, LedgerStateRefunded, LedgerStateIncorrectlyFunded:
		return true
	default:
		return false
	}
}

// SwapCommunicationKind tags which variant of SwapCommunication a value
// represents.
type SwapCommunicationKind uint8

const (
	SwapCommunicationProposed SwapCommunicationKind = iota
	SwapCommunicationAccepted
	SwapCommunicationDeclined
)

// SwapCommunication is the negotiation half of SwapState: Proposed carries
// just the Request; Accepted and Declined carry the Request paired with
// Bob's Response.
type SwapCommunication struct {
	Kind     SwapCommunicationKind
	Request  Request
	Response Response
}

// SwapOutcomeKind enumerates the terminal outcomes a swap can reach.
type SwapOutcomeKind uint8

const (
	SwapOutcomeNone SwapOutcomeKind = iota
	SwapOutcomeSucceeded
	SwapOutcomeRefundedBoth
	SwapOutcomeAlphaRefundedBetaRedeemed
	SwapOutcomeAlphaRedeemedBetaRefunded
	SwapOutcomeDeclined
	SwapOutcomeFailed
)

func (k SwapOutcomeKind) String() string {
	switch k {
	case SwapOutcomeSucceeded:
		return "succeeded"
	case SwapOutcomeRefundedBoth:
		return "refunded_both"
	case SwapOutcomeAlphaRefundedBetaRedeemed:
		return "alpha_refunded_beta_redeemed"
	case SwapOutcomeAlphaRedeemedBetaRefunded:
		return "alpha_redeemed_beta_refunded"
	case SwapOutcomeDeclined:
		return "declined"
	case SwapOutcomeFailed:
		return "failed"
	default:
		return "none"
	}
}

// SwapOutcome is the terminal classification of a finished swap. Reason is
// populated only for SwapOutcomeFailed.
type SwapOutcome struct {
	Kind   SwapOutcomeKind
	Reason string
}

// SwapState is the complete persisted protocol state for one swap: the
// fold of every SwapRecord event observed so far, in order. The machine
// must never maintain authoritative state outside of this value as
// reconstructed by the store.
type SwapState struct {
	SwapId        Id
	Role          Role
	Communication SwapCommunication
	Alpha         LedgerState
	Beta          LedgerState
	Failed        bool
	FailReason    string

	// LocalSecret is Alice's own secret, known to her from the moment
	// she generates it and never itself an event-sourced fact (only its
	// hash is ever observed on-chain or exchanged on the wire). Bob's
	// SwapState leaves this zero; he instead learns the secret from
	// LedgerState.Secret once he observes Alice's beta redemption.
	LocalSecret Secret
}

// Outcome classifies a SwapState as terminal or not. The second return
// value is false while the swap is still in progress.
func (s SwapState) Outcome() (SwapOutcome, bool) {
	if s.Failed {
		return SwapOutcome{Kind: SwapOutcomeFailed, Reason: s.FailReason}, true
	}
	if s.Communication.Kind == SwapCommunicationDeclined {
		return SwapOutcome{Kind: SwapOutcomeDeclined}, true
	}
	if !s.Alpha.IsTerminal() || !s.Beta.IsTerminal() {
		return SwapOutcome{}, false
	}
	switch {
	case s.Alpha.Kind == LedgerStateRedeemed && s.Beta.Kind == LedgerStateRedeemed:
		return SwapOutcome{Kind: SwapOutcomeSucceeded}, true
	case s.Alpha.Kind == LedgerStateRefunded && s.Beta.Kind == LedgerStateRefunded:
		return SwapOutcome{Kind: SwapOutcomeRefundedBoth}, true
	case s.Alpha.Kind == LedgerStateRefunded && s.Beta.Kind == LedgerStateRedeemed:
		return SwapOutcome{Kind: SwapOutcomeAlphaRefundedBetaRedeemed}, true
	case s.Alpha.Kind == LedgerStateRedeemed && s.Beta.Kind == LedgerStateRefunded:
		return SwapOutcome{Kind: SwapOutcomeAlphaRedeemedBetaRefunded}, true
	default:
		return SwapOutcome{Kind: SwapOutcomeFailed, Reason: "unreconciled terminal ledger states"}, true
	}
}
