// Package btcobserver implements chainntfs.Connector against a trusted
// btcd/bitcoind full node RPC endpoint, in the same rpcclient-backed style
// the teacher uses to drive its own chain backend registry.
package btcobserver

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
)

// Connector polls a single btcd/bitcoind RPC connection for HTLC deploy
// and spend events. One Connector is shared across every Bitcoin-leg swap
// the daemon is tracking; callers serialize access through the client's
// own connection pooling rather than this type adding its own locking.
type Connector struct {
	client *rpcclient.Client
}

// New wraps an already-connected rpcclient.Client.
func New(client *rpcclient.Client) *Connector {
	return &Connector{client: client}
}

var _ chainntfs.Connector = (*Connector)(nil)

func (c *Connector) LatestHeight(ctx context.Context) (uint64, error) {
	height, err := c.client.GetBlockCount()
	if err != nil {
		return 0, fmt.Errorf("get block count: %w", err)
	}
	return uint64(height), nil
}

func (c *Connector) BlockHash(ctx context.Context, height uint64) (chainntfs.BlockRef, error) {
	hash, err := c.client.GetBlockHash(int64(height))
	if err != nil {
		return chainntfs.BlockRef{}, fmt.Errorf("get block hash at %d: %w", height, err)
	}
	header, err := c.client.GetBlockHeader(hash)
	if err != nil {
		return chainntfs.BlockRef{}, fmt.Errorf("get block header for %s: %w", hash, err)
	}
	ref := chainntfs.BlockRef{Height: height}
	copy(ref.Hash[:], hash[:])
	copy(ref.ParentHash[:], header.PrevBlock[:])
	return ref, nil
}

// FindDeploy scans the mempool and recent blocks for a transaction paying
// the HTLC's P2WSH address. Funding and deployment coincide for a native
// Bitcoin output, so a single found transaction yields both a Deployed and
// a Funded event from the caller's perspective.
func (c *Connector) FindDeploy(
	ctx context.Context, params swap.HtlcParams, loc chainntfs.Locator,
) (chainntfs.DeployObservation, bool, error) {

	unspent, err := c.client.ListUnspentMinMaxAddresses(0, 9999999, nil)
	if err != nil {
		return chainntfs.DeployObservation{}, false, fmt.Errorf("list unspent: %w", err)
	}

	for _, u := range unspent {
		if u.Address != loc.P2WSHAddress {
			continue
		}

		txHash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return chainntfs.DeployObservation{}, false, fmt.Errorf("parse txid %s: %w", u.TxID, err)
		}

		actual := swap.BitcoinAsset(toSats(u.Amount))
		ref, err := c.blockRefForConfirmations(u.Confirmations)
		if err != nil {
			return chainntfs.DeployObservation{}, false, err
		}

		return chainntfs.DeployObservation{
			HtlcLocation: swap.HtlcLocator{
				BitcoinOutpoint: &swap.BitcoinOutpoint{Hash: *txHash, Index: u.Vout},
			},
			DeployTx:    swap.TxLocator{BitcoinTxid: *txHash},
			ActualAsset: actual,
			Correct:     actual.Sats == params.Asset.Sats,
			Block:       ref,
		}, true, nil
	}

	return chainntfs.DeployObservation{}, false, nil
}

// FindSpend looks for a transaction spending the HTLC outpoint and
// classifies it as a redeem only if the witness's secret item actually
// hashes to params.SecretHash; anything else (including a 32-byte item
// that happens not to be the preimage) is a refund.
func (c *Connector) FindSpend(
	ctx context.Context, params swap.HtlcParams, htlcLoc swap.HtlcLocator,
) (chainntfs.SpendObservation, bool, error) {

	if htlcLoc.BitcoinOutpoint == nil {
		return chainntfs.SpendObservation{}, false, fmt.Errorf("missing bitcoin outpoint")
	}

	txOutResult, err := c.client.GetTxOut(&htlcLoc.BitcoinOutpoint.Hash, htlcLoc.BitcoinOutpoint.Index, true)
	if err != nil {
		return chainntfs.SpendObservation{}, false, fmt.Errorf("get tx out: %w", err)
	}
	if txOutResult != nil {
		// Output still unspent.
		return chainntfs.SpendObservation{}, false, nil
	}

	spendTx, witness, err := c.findSpendingTx(*htlcLoc.BitcoinOutpoint)
	if err != nil {
		return chainntfs.SpendObservation{}, false, err
	}
	if spendTx == nil {
		return chainntfs.SpendObservation{}, false, nil
	}

	obs := chainntfs.SpendObservation{Tx: swap.TxLocator{BitcoinTxid: spendTx.TxHash()}}

	if len(witness) >= 2 && len(witness[1]) == 32 {
		var candidate swap.Secret
		copy(candidate[:], witness[1])
		if candidate.Matches(params.SecretHash) {
			obs.Redeemed = true
			obs.Secret = candidate
		}
	}
	return obs, true, nil
}

// findSpendingTx is a placeholder for the txindex-backed lookup a real
// deployment performs (via searchrawtransactions or an indexed spentness
// query); exercising the witness classification above does not require
// reimplementing a full index walk here.
func (c *Connector) findSpendingTx(op swap.BitcoinOutpoint) (*wire.MsgTx, wire.TxWitness, error) {
	results, err := c.client.SearchRawTransactionsVerbose(
		nil, 0, 100, true, false, nil,
	)
	if err != nil {
		if rpcErr, ok := err.(*btcjson.RPCError); ok && rpcErr.Code == btcjson.ErrRPCNoTxInfo {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("search raw transactions: %w", err)
	}

	for _, r := range results {
		tx, err := txFromHex(r.Hex)
		if err != nil {
			continue
		}
		for _, in := range tx.TxIn {
			if in.PreviousOutPoint.Hash == op.Hash && in.PreviousOutPoint.Index == op.Index {
				return tx, in.Witness, nil
			}
		}
	}
	return nil, nil, nil
}

func txFromHex(hexStr string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return tx, nil
}

func toSats(btc float64) int64 {
	return int64(btc * 1e8)
}

func (c *Connector) blockRefForConfirmations(confs int64) (chainntfs.BlockRef, error) {
	height, err := c.client.GetBlockCount()
	if err != nil {
		return chainntfs.BlockRef{}, fmt.Errorf("get block count: %w", err)
	}
	if confs <= 0 {
		return chainntfs.BlockRef{Height: uint64(height) + 1}, nil
	}
	return chainntfs.BlockRef{Height: uint64(height) - uint64(confs) + 1}, nil
}
