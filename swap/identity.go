package swap

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
)

// Role distinguishes the two parties to a swap. Alice initiates and is the
// only party who ever learns the secret preimage before redemption; Bob
// responds and, once Alice's alpha HTLC is funded, locks funds on the
// ledger Alice will redeem from.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAlice
	RoleBob
)

func (r Role) String() string {
	switch r {
	case RoleAlice:
		return "alice"
	case RoleBob:
		return "bob"
	default:
		return "unknown"
	}
}

// Other returns the counterparty role.
func (r Role) Other() Role {
	switch r {
	case RoleAlice:
		return RoleBob
	case RoleBob:
		return RoleAlice
	default:
		return RoleUnknown
	}
}

// Identity is a ledger-specific spending/receiving credential supplied by a
// party for one leg of the swap. Exactly one field is populated, selected by
// the leg's Ledger.Kind.
type Identity struct {
	// BitcoinPubKey is the public key whose corresponding private key can
	// sign the redeem or refund branch of a Bitcoin HTLC.
	BitcoinPubKey *btcec.PublicKey

	// EthereumAddress is the address that will call redeem/refund on an
	// Ethereum HTLC, or receive ERC-20/Ether on redemption.
	EthereumAddress common.Address
}

// BitcoinIdentity wraps a public key as a Bitcoin-ledger Identity.
func BitcoinIdentity(pub *btcec.PublicKey) Identity {
	return Identity{BitcoinPubKey: pub}
}

// EthereumIdentity wraps an address as an Ethereum-ledger Identity.
func EthereumIdentity(addr common.Address) Identity {
	return Identity{EthereumAddress: addr}
}

// ParseBitcoinPubKey parses a compressed or uncompressed secp256k1 public
// key, as received on the wire during negotiation.
func ParseBitcoinPubKey(b []byte) (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(b)
}
