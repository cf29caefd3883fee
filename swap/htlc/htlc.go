// Package htlc builds and spends hash time-locked contracts, one concrete
// implementation per supported ledger. Dispatch across ledgers is a closed
// switch, not an open plugin registry: the engine supports exactly Bitcoin
// P2WSH outputs and Ethereum HTLC contracts, and adding a third ledger is a
// source change, not a runtime registration.
package htlc

import (
	"fmt"

	"github.com/atomicswapd/swapd/swap"
)

// Builder computes the deploy artifacts (the Bitcoin witness script and
// P2WSH address, or the Ethereum init code) for one HtlcParams on its
// ledger. Implementations are stateless; every method is a pure function of
// its arguments.
type Builder interface {
	// Ledger reports which Ledger this builder handles.
	Ledger() swap.Ledger

	// DeployLocator computes where the HTLC will live once deployed,
	// without broadcasting anything. For Bitcoin this is the P2WSH
	// script and derived address; for Ethereum it is the deterministic
	// deploy parameters (the address itself is only known after the
	// deploy transaction is mined).
	DeployLocator(params swap.HtlcParams) (Locator, error)
}

// Locator is the ledger-specific deploy artifact a Builder produces:
// enough information for a wallet to construct the deploy/fund
// transaction and for an observer to recognize it on-chain.
type Locator struct {
	// Bitcoin fields.
	WitnessScript []byte
	P2WSHAddress  string

	// Ethereum fields.
	InitCode []byte
}

// ErrUnsupportedLedger is returned by For when no Builder exists for the
// requested Ledger kind.
var ErrUnsupportedLedger = fmt.Errorf("unsupported ledger for htlc construction")
