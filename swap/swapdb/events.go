// Package swapdb provides durable, idempotent persistence of swap
// records and their events on top of bbolt, in the same
// bucket-per-entity, TLV-encoded-value style channeldb uses for open
// channels and payment state.
package swapdb

import (
	"bytes"
	"fmt"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/tlv"
)

// Event TLV record types. Unlike the wire messages in swap/negotiate,
// events additionally carry their Kind and Leg as explicit records, since
// a single events bucket stores every kind of event interleaved.
const (
	erKind tlv.Type = iota
	erLeg
	erRequest
	erResponse
	erHtlcLocation
	erDeployTx
	erFundTx
	erActualAsset
	erSecret
	erRedeemTx
	erRefundTx
)

// EncodeEvent serializes a swap.Event to its durable TLV form.
func EncodeEvent(e swap.Event) ([]byte, error) {
	s := tlv.NewStream()
	s.AddRecord(erKind, []byte{byte(e.Kind)})
	s.AddRecord(erLeg, []byte{byte(e.Leg)})

	if e.Kind == swap.EventKindProposed || e.Kind == swap.EventKindAccepted || e.Kind == swap.EventKindDeclined {
		reqBytes, err := encodeRequest(e.Request)
		if err != nil {
			return nil, err
		}
		s.AddRecord(erRequest, reqBytes)

		if e.Kind != swap.EventKindProposed {
			s.AddRecord(erResponse, encodeResponse(e.Request, e.Response))
		}
	}

	if e.Kind == swap.EventKindDeployed {
		s.AddRecord(erHtlcLocation, encodeHtlcLocation(e.HtlcLocation))
		s.AddRecord(erDeployTx, encodeTxLocator(e.DeployTx))
	}
	if e.Kind == swap.EventKindFunded {
		s.AddRecord(erHtlcLocation, encodeHtlcLocation(e.HtlcLocation))
		s.AddRecord(erFundTx, encodeTxLocator(e.FundTx))
		s.AddRecord(erActualAsset, encodeAsset(e.ActualAsset))
	}
	if e.Kind == swap.EventKindIncorrectlyFunded {
		s.AddRecord(erActualAsset, encodeAsset(e.ActualAsset))
	}
	if e.Kind == swap.EventKindRedeemed {
		s.AddRecord(erSecret, e.Secret[:])
		s.AddRecord(erRedeemTx, encodeTxLocator(e.RedeemTx))
	}
	if e.Kind == swap.EventKindRefunded {
		s.AddRecord(erRefundTx, encodeTxLocator(e.RefundTx))
	}

	body, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return body, nil
}

// DecodeEvent parses a payload produced by EncodeEvent.
func DecodeEvent(raw []byte) (swap.Event, error) {
	records, err := tlv.Decode(bytes.NewReader(raw))
	if err != nil {
		return swap.Event{}, fmt.Errorf("decode event tlv: %w", err)
	}

	var e swap.Event
	if v, ok := tlv.Lookup(records, erKind); ok && len(v) == 1 {
		e.Kind = swap.EventKind(v[0])
	}
	if v, ok := tlv.Lookup(records, erLeg); ok && len(v) == 1 {
		e.Leg = swap.Leg(v[0])
	}
	if v, ok := tlv.Lookup(records, erRequest); ok {
		e.Request, err = decodeRequest(v)
		if err != nil {
			return swap.Event{}, err
		}
	}
	if v, ok := tlv.Lookup(records, erResponse); ok {
		e.Response, err = decodeResponseFor(e.Request, v)
		if err != nil {
			return swap.Event{}, err
		}
	}
	if v, ok := tlv.Lookup(records, erHtlcLocation); ok {
		e.HtlcLocation, err = decodeHtlcLocation(v)
		if err != nil {
			return swap.Event{}, err
		}
	}
	if v, ok := tlv.Lookup(records, erDeployTx); ok {
		e.DeployTx = decodeTxLocator(v)
	}
	if v, ok := tlv.Lookup(records, erFundTx); ok {
		e.FundTx = decodeTxLocator(v)
	}
	if v, ok := tlv.Lookup(records, erActualAsset); ok {
		e.ActualAsset, err = decodeAssetBytes(v)
		if err != nil {
			return swap.Event{}, err
		}
	}
	if v, ok := tlv.Lookup(records, erSecret); ok && len(v) == 32 {
		copy(e.Secret[:], v)
	}
	if v, ok := tlv.Lookup(records, erRedeemTx); ok {
		e.RedeemTx = decodeTxLocator(v)
	}
	if v, ok := tlv.Lookup(records, erRefundTx); ok {
		e.RefundTx = decodeTxLocator(v)
	}
	return e, nil
}
