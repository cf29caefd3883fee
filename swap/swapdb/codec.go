package swapdb

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/negotiate"
)

// encodeRequest/decodeRequest delegate to negotiate's wire codec: the
// durable form of a Request is byte-identical to what crossed the wire,
// so there is no separate schema to maintain here.
func encodeRequest(req swap.Request) ([]byte, error) {
	return negotiate.EncodeRequest(req)
}

func decodeRequest(b []byte) (swap.Request, error) {
	return negotiate.DecodeRequest(b)
}

// encodeResponse/decodeResponse likewise delegate to negotiate, using the
// paired Request's ledgers to disambiguate identity encoding.
func encodeResponse(req swap.Request, resp swap.Response) []byte {
	b, err := negotiate.EncodeResponse(resp, req.AlphaLedger, req.BetaLedger)
	if err != nil {
		// Response only fails to encode for malformed ledger kinds, which
		// cannot occur for a Request that has already round-tripped
		// through negotiate; a store write is not the place to propagate
		// that as an error.
		return nil
	}
	return b
}

func decodeResponseFor(req swap.Request, b []byte) (swap.Response, error) {
	return negotiate.DecodeResponse(b, req.AlphaLedger, req.BetaLedger)
}

// encodeTxLocator/decodeTxLocator store both ledgers' hash fields
// unconditionally; only the one matching the owning leg's ledger is ever
// non-zero, and the zero value round-trips cleanly.
func encodeTxLocator(t swap.TxLocator) []byte {
	b := make([]byte, chainhash.HashSize+common.HashLength)
	copy(b[:chainhash.HashSize], t.BitcoinTxid[:])
	copy(b[chainhash.HashSize:], t.EthereumTxid[:])
	return b
}

func decodeTxLocator(b []byte) swap.TxLocator {
	var t swap.TxLocator
	if len(b) < chainhash.HashSize+common.HashLength {
		return t
	}
	copy(t.BitcoinTxid[:], b[:chainhash.HashSize])
	copy(t.EthereumTxid[:], b[chainhash.HashSize:])
	return t
}

// encodeHtlcLocation/decodeHtlcLocation store a presence byte for the
// optional Bitcoin outpoint alongside its fixed-width fields and the
// Ethereum contract address.
func encodeHtlcLocation(l swap.HtlcLocator) []byte {
	b := make([]byte, 1+chainhash.HashSize+4+common.AddressLength)
	if l.BitcoinOutpoint != nil {
		b[0] = 1
		copy(b[1:1+chainhash.HashSize], l.BitcoinOutpoint.Hash[:])
		binary.BigEndian.PutUint32(b[1+chainhash.HashSize:], l.BitcoinOutpoint.Index)
	}
	copy(b[1+chainhash.HashSize+4:], l.EthereumContract[:])
	return b
}

func decodeHtlcLocation(b []byte) (swap.HtlcLocator, error) {
	want := 1 + chainhash.HashSize + 4 + common.AddressLength
	if len(b) != want {
		return swap.HtlcLocator{}, fmt.Errorf("malformed htlc location: %d bytes", len(b))
	}
	var l swap.HtlcLocator
	if b[0] == 1 {
		var outpoint swap.BitcoinOutpoint
		copy(outpoint.Hash[:], b[1:1+chainhash.HashSize])
		outpoint.Index = binary.BigEndian.Uint32(b[1+chainhash.HashSize:])
		l.BitcoinOutpoint = &outpoint
	}
	l.EthereumContract = common.BytesToAddress(b[1+chainhash.HashSize+4:])
	return l, nil
}

// encodeAsset/decodeAssetBytes store Asset in its full, self-describing
// form; ActualAsset is the only field using this codec, since Request and
// Response's Assets travel inside their own delegated encodings above.
func encodeAsset(a swap.Asset) []byte {
	b := []byte{byte(a.Kind)}
	switch a.Kind {
	case swap.AssetKindBitcoin:
		var sats [8]byte
		binary.BigEndian.PutUint64(sats[:], uint64(a.Sats))
		b = append(b, sats[:]...)
	case swap.AssetKindEther:
		if a.WeiAmount != nil {
			b = append(b, a.WeiAmount.Bytes()...)
		}
	case swap.AssetKindERC20:
		b = append(b, a.TokenContract[:]...)
		if a.WeiAmount != nil {
			b = append(b, a.WeiAmount.Bytes()...)
		}
	}
	return b
}

func decodeAssetBytes(b []byte) (swap.Asset, error) {
	if len(b) == 0 {
		return swap.Asset{}, nil
	}
	kind := swap.AssetKind(b[0])
	rest := b[1:]
	switch kind {
	case swap.AssetKindBitcoin:
		if len(rest) != 8 {
			return swap.Asset{}, fmt.Errorf("malformed bitcoin asset record")
		}
		return swap.BitcoinAsset(swap.BitcoinAmountFromSats(int64(binary.BigEndian.Uint64(rest)))), nil
	case swap.AssetKindEther:
		return swap.EtherAsset(new(big.Int).SetBytes(rest)), nil
	case swap.AssetKindERC20:
		if len(rest) < common.AddressLength {
			return swap.Asset{}, fmt.Errorf("malformed erc20 asset record")
		}
		var addr [20]byte
		copy(addr[:], rest[:common.AddressLength])
		return swap.ERC20AssetFromBytes(addr, rest[common.AddressLength:]), nil
	default:
		return swap.Asset{}, fmt.Errorf("unknown asset kind %d", kind)
	}
}
