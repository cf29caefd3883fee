package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/atomicswapd/swapd/swap"
)

// parseLedger accepts "bitcoin-mainnet", "bitcoin-testnet",
// "bitcoin-regtest", or "ethereum-<chain_id>", the same form Ledger.String
// renders.
func parseLedger(s string) (swap.Ledger, error) {
	switch s {
	case "bitcoin-mainnet":
		return swap.Bitcoin(swap.BitcoinMainnet), nil
	case "bitcoin-testnet":
		return swap.Bitcoin(swap.BitcoinTestnet), nil
	case "bitcoin-regtest":
		return swap.Bitcoin(swap.BitcoinRegtest), nil
	}
	if chainID, ok := strings.CutPrefix(s, "ethereum-"); ok {
		id, err := strconv.ParseUint(chainID, 10, 64)
		if err != nil {
			return swap.Ledger{}, fmt.Errorf("invalid ethereum chain id %q: %w", chainID, err)
		}
		return swap.Ethereum(id), nil
	}
	return swap.Ledger{}, fmt.Errorf("unrecognized ledger %q", s)
}

// parseAsset builds an Asset for ledger from a decimal amount string, in
// the ledger's smallest unit (sats, wei, or token base units). token is
// only consulted for an Ethereum ledger and, if non-empty, selects an
// ERC-20 asset over native Ether.
func parseAsset(ledger swap.Ledger, amount, token string) (swap.Asset, error) {
	switch ledger.Kind {
	case swap.LedgerKindBitcoin:
		sats, err := strconv.ParseInt(amount, 10, 64)
		if err != nil {
			return swap.Asset{}, fmt.Errorf("invalid satoshi amount %q: %w", amount, err)
		}
		return swap.BitcoinAsset(swap.BitcoinAmountFromSats(sats)), nil
	case swap.LedgerKindEthereum:
		wei, ok := new(big.Int).SetString(amount, 10)
		if !ok {
			return swap.Asset{}, fmt.Errorf("invalid wei amount %q", amount)
		}
		if token == "" {
			return swap.EtherAsset(wei), nil
		}
		if !common.IsHexAddress(token) {
			return swap.Asset{}, fmt.Errorf("invalid token contract address %q", token)
		}
		return swap.ERC20Asset(common.HexToAddress(token), wei), nil
	default:
		return swap.Asset{}, fmt.Errorf("unsupported ledger %v", ledger)
	}
}
