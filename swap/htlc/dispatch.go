package htlc

import (
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/htlc/btc"
	"github.com/atomicswapd/swapd/swap/htlc/eth"
)

// bitcoinBuilder is the Builder for Bitcoin P2WSH HTLCs on a fixed network.
type bitcoinBuilder struct {
	net    *chaincfg.Params
	ledger swap.Ledger
}

func (b *bitcoinBuilder) Ledger() swap.Ledger { return b.ledger }

func (b *bitcoinBuilder) DeployLocator(params swap.HtlcParams) (Locator, error) {
	script, err := btc.WitnessScript(params)
	if err != nil {
		return Locator{}, err
	}
	addr, err := btc.P2WSHAddress(script, b.net)
	if err != nil {
		return Locator{}, err
	}
	return Locator{WitnessScript: script, P2WSHAddress: addr.String()}, nil
}

// ethereumBuilder is the Builder for Ethereum HTLC contracts on a fixed
// chain id.
type ethereumBuilder struct {
	ledger swap.Ledger
}

func (b *ethereumBuilder) Ledger() swap.Ledger { return b.ledger }

func (b *ethereumBuilder) DeployLocator(params swap.HtlcParams) (Locator, error) {
	code, err := eth.InitCode(params)
	if err != nil {
		return Locator{}, err
	}
	return Locator{InitCode: code}, nil
}

func networkParams(net swap.BitcoinNetwork) *chaincfg.Params {
	switch net {
	case swap.BitcoinMainnet:
		return &chaincfg.MainNetParams
	case swap.BitcoinTestnet:
		return &chaincfg.TestNet3Params
	default:
		return &chaincfg.RegressionNetParams
	}
}

// For returns the Builder for the given Ledger. It never returns nil
// without error: callers must check err before using the Builder.
func For(ledger swap.Ledger) (Builder, error) {
	switch ledger.Kind {
	case swap.LedgerKindBitcoin:
		return &bitcoinBuilder{net: networkParams(ledger.BitcoinNet), ledger: ledger}, nil
	case swap.LedgerKindEthereum:
		return &ethereumBuilder{ledger: ledger}, nil
	default:
		return nil, ErrUnsupportedLedger
	}
}
