// Package ethobserver implements chainntfs.Connector against an Ethereum
// JSON-RPC endpoint via ethclient, in the style of the pack's
// abi/bind-backed contract callers: a thin wrapper that turns raw
// eth_getLogs / eth_getTransactionReceipt calls into the typed
// observations the swap machine needs.
package ethobserver

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/swap/htlc/eth"
)

// scanWindowBlocks bounds how far back findCreation/findCallTo walk from
// the chain tip, mirroring btcobserver's SearchRawTransactionsVerbose
// window rather than an unbounded eth_getLogs-style index scan.
const scanWindowBlocks = 256

// transferEventSignature is the topic0 for ERC-20 Transfer(address,address,uint256).
var transferEventSignature = common.HexToHash(
	"ddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
)

// Connector polls a single Ethereum node for HTLC deploy and spend events.
type Connector struct {
	client *ethclient.Client
}

// New wraps an already-connected ethclient.Client.
func New(client *ethclient.Client) *Connector {
	return &Connector{client: client}
}

var _ chainntfs.Connector = (*Connector)(nil)

func (c *Connector) LatestHeight(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("get latest header: %w", err)
	}
	return header.Number.Uint64(), nil
}

func (c *Connector) BlockHash(ctx context.Context, height uint64) (chainntfs.BlockRef, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(height))
	if err != nil {
		return chainntfs.BlockRef{}, fmt.Errorf("get header at %d: %w", height, err)
	}
	ref := chainntfs.BlockRef{Height: height}
	copy(ref.Hash[:], header.Hash().Bytes())
	copy(ref.ParentHash[:], header.ParentHash.Bytes())
	return ref, nil
}

// FindDeploy looks for the contract-creation transaction whose init code
// is byte-for-byte equal to loc.InitCode (the template with this swap's
// parameters spliced in), then
// checks the deployed contract's balance (native ether) or its first
// ERC-20 Transfer log (token) against the expected asset.
//
// For an ERC-20 leg, "funded" is satisfied by the *first* Transfer log
// into the HTLC address; a partial or wrong-amount transfer is reported
// as IncorrectlyFunded rather than waited on for a corrective follow-up
// transfer, since the contract has no way to attribute a second transfer
// to the same swap.
func (c *Connector) FindDeploy(
	ctx context.Context, params swap.HtlcParams, loc chainntfs.Locator,
) (chainntfs.DeployObservation, bool, error) {

	contractAddr, creationTx, blockNum, found, err := c.findCreation(ctx, loc.InitCode)
	if err != nil || !found {
		return chainntfs.DeployObservation{}, found, err
	}

	ref, err := c.BlockHash(ctx, blockNum)
	if err != nil {
		return chainntfs.DeployObservation{}, false, err
	}

	htlcLoc := swap.HtlcLocator{EthereumContract: contractAddr}
	deployTx := swap.TxLocator{EthereumTxid: creationTx}

	switch params.Asset.Kind {
	case swap.AssetKindEther:
		balance, err := c.client.BalanceAt(ctx, contractAddr, new(big.Int).SetUint64(blockNum))
		if err != nil {
			return chainntfs.DeployObservation{}, false, fmt.Errorf("balance at: %w", err)
		}
		actual := swap.EtherAsset(balance)
		return chainntfs.DeployObservation{
			HtlcLocation: htlcLoc,
			DeployTx:     deployTx,
			ActualAsset:  actual,
			Correct:      balance.Cmp(params.Asset.WeiAmount) == 0,
			Block:        ref,
		}, true, nil

	case swap.AssetKindERC20:
		amount, err := c.firstTransferAmount(ctx, params.Asset.TokenContract, contractAddr)
		if err != nil {
			return chainntfs.DeployObservation{}, false, err
		}
		if amount == nil {
			// Contract deployed, token not sent yet.
			return chainntfs.DeployObservation{}, false, nil
		}
		actual := swap.ERC20Asset(params.Asset.TokenContract, amount)
		return chainntfs.DeployObservation{
			HtlcLocation: htlcLoc,
			DeployTx:     deployTx,
			ActualAsset:  actual,
			Correct:      amount.Cmp(params.Asset.WeiAmount) == 0,
			Block:        ref,
		}, true, nil

	default:
		return chainntfs.DeployObservation{}, false, fmt.Errorf("unsupported ethereum asset kind %v", params.Asset.Kind)
	}
}

// findCreation scans the most recent scanWindowBlocks for a contract
// creation transaction (To == nil) whose init code matches the exact
// bytes loc.InitCode spliced for this swap's params, since InitCode
// already embeds this swap's redeemer, refunder, secret hash, and
// expiry, and no other swap's deploy can collide with it.
func (c *Connector) findCreation(ctx context.Context, initCode []byte) (common.Address, common.Hash, uint64, bool, error) {
	from, latest, err := c.scanRange(ctx)
	if err != nil {
		return common.Address{}, common.Hash{}, 0, false, err
	}

	for h := latest; ; h-- {
		block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(h))
		if err != nil {
			return common.Address{}, common.Hash{}, 0, false, fmt.Errorf("get block %d: %w", h, err)
		}
		for _, tx := range block.Transactions() {
			if tx.To() != nil || !bytes.Equal(tx.Data(), initCode) {
				continue
			}
			receipt, err := c.client.TransactionReceipt(ctx, tx.Hash())
			if err != nil {
				return common.Address{}, common.Hash{}, 0, false, fmt.Errorf("get receipt for %s: %w", tx.Hash(), err)
			}
			return receipt.ContractAddress, tx.Hash(), h, true, nil
		}
		if h == from {
			break
		}
	}
	return common.Address{}, common.Hash{}, 0, false, nil
}

// scanRange returns the [from, latest] block window findCreation and
// findCallTo walk, clamped to scanWindowBlocks so a long-idle swap
// doesn't force a full-chain scan on every poll.
func (c *Connector) scanRange(ctx context.Context) (from, latest uint64, err error) {
	latest, err = c.client.BlockNumber(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("get block number: %w", err)
	}
	from = uint64(0)
	if latest > scanWindowBlocks {
		from = latest - scanWindowBlocks
	}
	return from, latest, nil
}

// firstTransferAmount returns the value of the first ERC-20 Transfer log
// paying `to`, or nil if none has occurred yet.
func (c *Connector) firstTransferAmount(ctx context.Context, token, to common.Address) (*big.Int, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{token},
		Topics: [][]common.Hash{
			{transferEventSignature},
			{},
			{common.BytesToHash(to.Bytes())},
		},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter transfer logs: %w", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}

	// Match only the first Transfer log; any subsequent transfer to the
	// same address is not attributed to this swap.
	return decodeTransferAmount(logs[0].Data)
}

// FindSpend looks for a transaction calling redeem or refund on the HTLC
// contract, classifying by the function selector.
func (c *Connector) FindSpend(
	ctx context.Context, params swap.HtlcParams, htlcLoc swap.HtlcLocator,
) (chainntfs.SpendObservation, bool, error) {

	code, err := c.client.CodeAt(ctx, htlcLoc.EthereumContract, nil)
	if err != nil {
		return chainntfs.SpendObservation{}, false, fmt.Errorf("code at: %w", err)
	}
	if len(code) > 0 {
		// Contract still has runtime code deployed; in this minimal
		// template the HTLC selfdestructs on spend, so nonzero code
		// means not yet spent.
		return chainntfs.SpendObservation{}, false, nil
	}

	tx, receipt, found, err := c.findCallTo(ctx, htlcLoc.EthereumContract)
	if err != nil || !found {
		return chainntfs.SpendObservation{}, found, err
	}

	ref, err := c.BlockHash(ctx, receipt.BlockNumber.Uint64())
	if err != nil {
		return chainntfs.SpendObservation{}, false, err
	}

	data := tx.Data()
	obs := chainntfs.SpendObservation{Tx: swap.TxLocator{EthereumTxid: tx.Hash()}, Block: ref}

	redeemSelector, err := eth.RedeemCalldata(swap.Secret{})
	if err != nil {
		return chainntfs.SpendObservation{}, false, fmt.Errorf("compute redeem selector: %w", err)
	}
	if len(data) >= 4 && len(redeemSelector) >= 4 &&
		string(data[:4]) == string(redeemSelector[:4]) && len(data) >= 36 {
		obs.Redeemed = true
		copy(obs.Secret[:], data[4:36])
	}
	return obs, true, nil
}

// findCallTo scans the most recent scanWindowBlocks for a transaction
// whose To address is contract, returning the first one found (an HTLC's
// redeem/refund is the only call it will ever receive after deploy).
func (c *Connector) findCallTo(ctx context.Context, contract common.Address) (*types.Transaction, *types.Receipt, bool, error) {
	from, latest, err := c.scanRange(ctx)
	if err != nil {
		return nil, nil, false, err
	}

	for h := latest; ; h-- {
		block, err := c.client.BlockByNumber(ctx, new(big.Int).SetUint64(h))
		if err != nil {
			return nil, nil, false, fmt.Errorf("get block %d: %w", h, err)
		}
		for _, tx := range block.Transactions() {
			if tx.To() == nil || *tx.To() != contract {
				continue
			}
			receipt, err := c.client.TransactionReceipt(ctx, tx.Hash())
			if err != nil {
				return nil, nil, false, fmt.Errorf("get receipt for %s: %w", tx.Hash(), err)
			}
			return tx, receipt, true, nil
		}
		if h == from {
			break
		}
	}
	return nil, nil, false, nil
}
