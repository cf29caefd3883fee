package swap

import (
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/common"
)

// AssetKind enumerates the closed set of asset representations the engine
// can lock inside an HTLC.
type AssetKind uint8

const (
	AssetKindUnknown AssetKind = iota
	AssetKindBitcoin
	AssetKindEther
	AssetKindERC20
)

func (k AssetKind) String() string {
	switch k {
	case AssetKindBitcoin:
		return "bitcoin"
	case AssetKindEther:
		return "ether"
	case AssetKindERC20:
		return "erc20"
	default:
		return "unknown"
	}
}

// Asset is the quantity-and-denomination half of a swap leg. Exactly one of
// the fields below is meaningful, selected by Kind:
//
//   - AssetKindBitcoin: Sats holds the amount in satoshis.
//   - AssetKindEther:   WeiAmount holds the amount in wei.
//   - AssetKindERC20:   WeiAmount holds the token amount (smallest unit) and
//     TokenContract holds the ERC-20 contract address.
type Asset struct {
	Kind AssetKind

	Sats btcutil.Amount

	WeiAmount     *big.Int
	TokenContract common.Address
}

// BitcoinAsset constructs a Bitcoin-denominated Asset.
func BitcoinAsset(amount btcutil.Amount) Asset {
	return Asset{Kind: AssetKindBitcoin, Sats: amount}
}

// BitcoinAmountFromSats converts a raw satoshi count to a btcutil.Amount,
// a thin wrapper kept so wire-decoding call sites read as asset
// construction rather than a bare type conversion.
func BitcoinAmountFromSats(sats int64) btcutil.Amount {
	return btcutil.Amount(sats)
}

// ERC20AssetFromBytes constructs an ERC20Asset from a raw 20-byte contract
// address and a big-endian token amount, as decoded off the wire.
func ERC20AssetFromBytes(contract [20]byte, amount []byte) Asset {
	return ERC20Asset(common.Address(contract), new(big.Int).SetBytes(amount))
}

// EtherAsset constructs an Ether-denominated Asset.
func EtherAsset(wei *big.Int) Asset {
	return Asset{Kind: AssetKindEther, WeiAmount: wei}
}

// ERC20Asset constructs an ERC-20 token Asset for the given contract.
func ERC20Asset(contract common.Address, amount *big.Int) Asset {
	return Asset{Kind: AssetKindERC20, WeiAmount: amount, TokenContract: contract}
}

// Ledger reports the ledger an asset of this kind settles on, built from
// the given Bitcoin network or Ethereum chain id.
func (a Asset) Ledger(net BitcoinNetwork, chainID uint64) Ledger {
	switch a.Kind {
	case AssetKindBitcoin:
		return Bitcoin(net)
	case AssetKindEther, AssetKindERC20:
		return Ethereum(chainID)
	default:
		return Ledger{}
	}
}

// IsZero reports whether the asset carries no positive quantity, a
// malformed Request condition the negotiation policy rejects outright.
func (a Asset) IsZero() bool {
	switch a.Kind {
	case AssetKindBitcoin:
		return a.Sats <= 0
	case AssetKindEther, AssetKindERC20:
		return a.WeiAmount == nil || a.WeiAmount.Sign() <= 0
	default:
		return true
	}
}
