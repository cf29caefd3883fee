package negotiate

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/tlv"
)

// Wire message type bytes, the first byte of every frame this package
// sends, mirroring lnwire's one-byte-type-prefixed message convention.
const (
	msgTypeRequest  byte = 0x01
	msgTypeResponse byte = 0x02
)

// TLV record types within a Request payload.
const (
	trSwapId Type = iota
	trAlphaLedger
	trBetaLedger
	trAlphaAsset
	trBetaAsset
	trAlphaRefundIdentity
	trBetaRedeemIdentity
	trAlphaExpiry
	trBetaExpiry
	trSecretHash
)

// Type is a local alias kept distinct from tlv.Type so this file reads as
// the message schema rather than a re-export.
type Type = tlv.Type

// EncodeRequest serializes a Request as a type-prefixed TLV stream.
func EncodeRequest(req swap.Request) ([]byte, error) {
	s := tlv.NewStream()
	s.AddRecord(trSwapId, req.SwapId[:])
	s.AddRecord(trAlphaLedger, encodeLedger(req.AlphaLedger))
	s.AddRecord(trBetaLedger, encodeLedger(req.BetaLedger))
	s.AddRecord(trAlphaAsset, encodeAsset(req.AlphaAsset))
	s.AddRecord(trBetaAsset, encodeAsset(req.BetaAsset))
	s.AddRecord(trAlphaRefundIdentity, encodeIdentity(req.AlphaLedger, req.AlphaRefundIdentity))
	s.AddRecord(trBetaRedeemIdentity, encodeIdentity(req.BetaLedger, req.BetaRedeemIdentity))
	s.AddRecord(trAlphaExpiry, encodeUint64(uint64(req.AlphaExpiry)))
	s.AddRecord(trBetaExpiry, encodeUint64(uint64(req.BetaExpiry)))
	s.AddRecord(trSecretHash, req.SecretHash[:])

	body, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode request tlv: %w", err)
	}
	return append([]byte{msgTypeRequest}, body...), nil
}

// DecodeRequest parses a frame produced by EncodeRequest.
func DecodeRequest(frame []byte) (swap.Request, error) {
	if len(frame) == 0 || frame[0] != msgTypeRequest {
		return swap.Request{}, fmt.Errorf("not a request frame")
	}
	records, err := tlv.Decode(bytes.NewReader(frame[1:]))
	if err != nil {
		return swap.Request{}, fmt.Errorf("decode request tlv: %w", err)
	}

	var req swap.Request
	if v, ok := tlv.Lookup(records, trSwapId); ok {
		id, err := swap.IdFromBytes(v)
		if err != nil {
			return swap.Request{}, err
		}
		req.SwapId = id
	}
	if v, ok := tlv.Lookup(records, trAlphaLedger); ok {
		req.AlphaLedger, err = decodeLedger(v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trBetaLedger); ok {
		req.BetaLedger, err = decodeLedger(v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trAlphaAsset); ok {
		req.AlphaAsset, err = decodeAsset(v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trBetaAsset); ok {
		req.BetaAsset, err = decodeAsset(v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trAlphaRefundIdentity); ok {
		req.AlphaRefundIdentity, err = decodeIdentity(req.AlphaLedger, v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trBetaRedeemIdentity); ok {
		req.BetaRedeemIdentity, err = decodeIdentity(req.BetaLedger, v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	if v, ok := tlv.Lookup(records, trAlphaExpiry); ok {
		req.AlphaExpiry = swap.Expiry(decodeUint64(v))
	}
	if v, ok := tlv.Lookup(records, trBetaExpiry); ok {
		req.BetaExpiry = swap.Expiry(decodeUint64(v))
	}
	if v, ok := tlv.Lookup(records, trSecretHash); ok {
		req.SecretHash, err = swap.SecretHashFromBytes(v)
		if err != nil {
			return swap.Request{}, err
		}
	}
	return req, nil
}

// TLV record types within a Response payload.
const (
	trAccepted Type = iota
	trDeclineReason
	trAlphaRedeemIdentity
	trBetaRefundIdentity
)

// EncodeResponse serializes a Response as a type-prefixed TLV stream. The
// caller must pass the originating Request's ledgers so identities can be
// encoded in their ledger-appropriate form.
func EncodeResponse(resp swap.Response, alphaLedger, betaLedger swap.Ledger) ([]byte, error) {
	s := tlv.NewStream()

	accepted := byte(0)
	if resp.Accepted {
		accepted = 1
	}
	s.AddRecord(trAccepted, []byte{accepted})

	if resp.Accepted {
		s.AddRecord(trAlphaRedeemIdentity, encodeIdentity(alphaLedger, resp.AlphaRedeemIdentity))
		s.AddRecord(trBetaRefundIdentity, encodeIdentity(betaLedger, resp.BetaRefundIdentity))
	} else {
		s.AddRecord(trDeclineReason, []byte{byte(resp.DeclineReason)})
	}

	body, err := s.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode response tlv: %w", err)
	}
	return append([]byte{msgTypeResponse}, body...), nil
}

// DecodeResponse parses a frame produced by EncodeResponse.
func DecodeResponse(frame []byte, alphaLedger, betaLedger swap.Ledger) (swap.Response, error) {
	if len(frame) == 0 || frame[0] != msgTypeResponse {
		return swap.Response{}, fmt.Errorf("not a response frame")
	}
	records, err := tlv.Decode(bytes.NewReader(frame[1:]))
	if err != nil {
		return swap.Response{}, fmt.Errorf("decode response tlv: %w", err)
	}

	var resp swap.Response
	if v, ok := tlv.Lookup(records, trAccepted); ok && len(v) == 1 {
		resp.Accepted = v[0] == 1
	}
	if resp.Accepted {
		if v, ok := tlv.Lookup(records, trAlphaRedeemIdentity); ok {
			resp.AlphaRedeemIdentity, err = decodeIdentity(alphaLedger, v)
			if err != nil {
				return swap.Response{}, err
			}
		}
		if v, ok := tlv.Lookup(records, trBetaRefundIdentity); ok {
			resp.BetaRefundIdentity, err = decodeIdentity(betaLedger, v)
			if err != nil {
				return swap.Response{}, err
			}
		}
	} else if v, ok := tlv.Lookup(records, trDeclineReason); ok && len(v) == 1 {
		resp.DeclineReason = swap.DeclineReason(v[0])
	}
	return resp, nil
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	var padded [8]byte
	copy(padded[8-len(b):], b)
	return binary.BigEndian.Uint64(padded[:])
}

func encodeLedger(l swap.Ledger) []byte {
	b := make([]byte, 9)
	b[0] = byte(l.Kind)
	switch l.Kind {
	case swap.LedgerKindBitcoin:
		b[1] = byte(l.BitcoinNet)
	case swap.LedgerKindEthereum:
		binary.BigEndian.PutUint64(b[1:], l.ChainID)
	}
	return b
}

func decodeLedger(b []byte) (swap.Ledger, error) {
	if len(b) != 9 {
		return swap.Ledger{}, fmt.Errorf("malformed ledger tlv: %d bytes", len(b))
	}
	switch swap.LedgerKind(b[0]) {
	case swap.LedgerKindBitcoin:
		return swap.Bitcoin(swap.BitcoinNetwork(b[1])), nil
	case swap.LedgerKindEthereum:
		return swap.Ethereum(binary.BigEndian.Uint64(b[1:])), nil
	default:
		return swap.Ledger{}, fmt.Errorf("unknown ledger kind %d", b[0])
	}
}

func encodeAsset(a swap.Asset) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(a.Kind))
	switch a.Kind {
	case swap.AssetKindBitcoin:
		buf.Write(encodeUint64(uint64(a.Sats)))
	case swap.AssetKindEther:
		writeBigInt(&buf, a.WeiAmount)
	case swap.AssetKindERC20:
		buf.Write(a.TokenContract[:])
		writeBigInt(&buf, a.WeiAmount)
	}
	return buf.Bytes()
}

func decodeAsset(b []byte) (swap.Asset, error) {
	if len(b) == 0 {
		return swap.Asset{}, fmt.Errorf("empty asset tlv")
	}
	kind := swap.AssetKind(b[0])
	rest := b[1:]
	switch kind {
	case swap.AssetKindBitcoin:
		if len(rest) != 8 {
			return swap.Asset{}, fmt.Errorf("malformed bitcoin asset tlv")
		}
		return swap.BitcoinAsset(swap.BitcoinAmountFromSats(int64(decodeUint64(rest)))), nil
	case swap.AssetKindEther:
		return swap.EtherAsset(new(big.Int).SetBytes(rest)), nil
	case swap.AssetKindERC20:
		if len(rest) < 20 {
			return swap.Asset{}, fmt.Errorf("malformed erc20 asset tlv")
		}
		var addr [20]byte
		copy(addr[:], rest[:20])
		return swap.ERC20AssetFromBytes(addr, rest[20:]), nil
	default:
		return swap.Asset{}, fmt.Errorf("unknown asset kind %d", kind)
	}
}

func writeBigInt(buf *bytes.Buffer, v *big.Int) {
	if v == nil {
		return
	}
	buf.Write(v.Bytes())
}

func encodeIdentity(ledger swap.Ledger, id swap.Identity) []byte {
	switch ledger.Kind {
	case swap.LedgerKindBitcoin:
		if id.BitcoinPubKey == nil {
			return nil
		}
		return id.BitcoinPubKey.SerializeCompressed()
	case swap.LedgerKindEthereum:
		return id.EthereumAddress[:]
	default:
		return nil
	}
}

func decodeIdentity(ledger swap.Ledger, b []byte) (swap.Identity, error) {
	switch ledger.Kind {
	case swap.LedgerKindBitcoin:
		pub, err := swap.ParseBitcoinPubKey(b)
		if err != nil {
			return swap.Identity{}, err
		}
		return swap.BitcoinIdentity(pub), nil
	case swap.LedgerKindEthereum:
		if len(b) != 20 {
			return swap.Identity{}, fmt.Errorf("malformed ethereum address: %d bytes", len(b))
		}
		return swap.EthereumIdentity(common.BytesToAddress(b)), nil
	default:
		return swap.Identity{}, fmt.Errorf("unknown ledger kind for identity decode")
	}
}
