package swap

// Request is the sole negotiation message Alice sends to Bob, proposing a
// swap identifier and both legs' parameters in full.
type Request struct {
	SwapId Id

	AlphaLedger Ledger
	BetaLedger  Ledger
	AlphaAsset  Asset
	BetaAsset   Asset

	// AlphaRefundIdentity is Alice's own refund credential on alpha.
	AlphaRefundIdentity Identity
	// BetaRedeemIdentity is Alice's own redeem credential on beta.
	BetaRedeemIdentity Identity

	AlphaExpiry Expiry
	BetaExpiry  Expiry
	SecretHash  SecretHash
}

// DeclineReason enumerates the reasons Bob's policy may reject a Request.
type DeclineReason uint8

const (
	DeclineReasonUnspecified DeclineReason = iota
	DeclineReasonInsufficientFunds
	DeclineReasonUnsupportedLedgerPair
	DeclineReasonBadExpiries
	DeclineReasonUnfavorableRate
)

func (r DeclineReason) String() string {
	switch r {
	case DeclineReasonInsufficientFunds:
		return "insufficient_funds"
	case DeclineReasonUnsupportedLedgerPair:
		return "unsupported_ledger_pair"
	case DeclineReasonBadExpiries:
		return "bad_expiries"
	case DeclineReasonUnfavorableRate:
		return "unfavorable_rate"
	default:
		return "unspecified"
	}
}

// Response is Bob's reply to a Request: either an Accept carrying his own
// identities for the two legs, or a Decline carrying an optional reason.
type Response struct {
	Accepted bool

	// AlphaRedeemIdentity is Bob's redeem credential on alpha. Populated
	// only when Accepted.
	AlphaRedeemIdentity Identity
	// BetaRefundIdentity is Bob's refund credential on beta. Populated
	// only when Accepted.
	BetaRefundIdentity Identity

	// DeclineReason is populated only when !Accepted.
	DeclineReason DeclineReason
}

// AcceptResponse builds an Accept Response.
func AcceptResponse(alphaRedeem, betaRefund Identity) Response {
	return Response{Accepted: true, AlphaRedeemIdentity: alphaRedeem, BetaRefundIdentity: betaRefund}
}

// DeclineResponse builds a Decline Response.
func DeclineResponse(reason DeclineReason) Response {
	return Response{Accepted: false, DeclineReason: reason}
}

// HtlcParamsFor derives the alpha or beta HtlcParams from a completed
// Request/Response pair. Both parties run this identical derivation after
// negotiation; no further message exchange determines HTLC shape.
func HtlcParamsFor(leg Leg, req Request, resp Response) HtlcParams {
	switch leg {
	case LegAlpha:
		return HtlcParams{
			Ledger:         req.AlphaLedger,
			Asset:          req.AlphaAsset,
			RedeemIdentity: resp.AlphaRedeemIdentity,
			RefundIdentity: req.AlphaRefundIdentity,
			Expiry:         req.AlphaExpiry,
			SecretHash:     req.SecretHash,
		}
	case LegBeta:
		return HtlcParams{
			Ledger:         req.BetaLedger,
			Asset:          req.BetaAsset,
			RedeemIdentity: req.BetaRedeemIdentity,
			RefundIdentity: resp.BetaRefundIdentity,
			Expiry:         req.BetaExpiry,
			SecretHash:     req.SecretHash,
		}
	default:
		return HtlcParams{}
	}
}
