// Package btcwallet implements swapexec.Wallet against a single trusted
// btcd/bitcoind RPC connection, in the same rpcclient-driven style as
// swap/chainntfs/btcobserver, using the witness-script and witness-stack
// helpers from swap/htlc/btc to deploy, redeem, and refund a Bitcoin HTLC.
package btcwallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/htlc/btc"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

var _ swapexec.Wallet = (*Wallet)(nil)

// FlatFee is the sat amount subtracted from a redeem/refund output. A real
// deployment would estimate this from the current mempool fee rate and the
// witness's size upper bound, the way sweep/txgenerator.go does; a flat fee
// keeps this wallet's spend construction readable while still exercising a
// real fee-paying transaction end to end.
const FlatFee btcutil.Amount = 1000

// Wallet deploys, redeems, and refunds Bitcoin HTLCs on behalf of a single
// identity key. One Wallet instance is constructed for the Bitcoin network
// the daemon is configured for and serves swaps in either role.
type Wallet struct {
	Client *rpcclient.Client
	Net    *chaincfg.Params
	Key    *btcec.PrivateKey
}

// New builds a Wallet signing with key against the given RPC connection.
func New(client *rpcclient.Client, net *chaincfg.Params, key *btcec.PrivateKey) *Wallet {
	return &Wallet{Client: client, Net: net, Key: key}
}

// Deploy pays the HTLC's P2WSH address, funding and deploying the contract
// in a single Bitcoin transaction.
func (w *Wallet) Deploy(ctx context.Context, params swap.HtlcParams) (swap.HtlcLocator, swap.TxLocator, error) {
	script, err := btc.WitnessScript(params)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("build witness script: %w", err)
	}
	addr, err := btc.P2WSHAddress(script, w.Net)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("derive p2wsh address: %w", err)
	}

	txid, err := w.Client.SendToAddress(addr, params.Asset.Sats)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("send to htlc address: %w", err)
	}

	vout, err := w.findVout(txid, addr)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, err
	}

	log.Infof("deployed htlc at %s:%d, txid %s", addr.EncodeAddress(), vout, txid)
	loc := swap.HtlcLocator{BitcoinOutpoint: &swap.BitcoinOutpoint{Hash: *txid, Index: vout}}
	return loc, swap.TxLocator{BitcoinTxid: *txid}, nil
}

// Redeem spends htlc's redeem branch using secret, paying the proceeds to
// a fresh wallet address.
func (w *Wallet) Redeem(
	ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator, secret swap.Secret,
) (swap.TxLocator, error) {

	return w.spend(params, htlc, 0, func(script []byte, amt int64, spendTx *wire.MsgTx) (wire.TxWitness, error) {
		return btc.RedeemWitness(script, amt, w.Key, spendTx, secret)
	})
}

// Refund spends htlc's refund branch once params.Expiry has passed, paying
// the proceeds to a fresh wallet address.
func (w *Wallet) Refund(
	ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator,
) (swap.TxLocator, error) {

	return w.spend(params, htlc, uint32(params.Expiry), func(script []byte, amt int64, spendTx *wire.MsgTx) (wire.TxWitness, error) {
		return btc.RefundWitness(script, amt, w.Key, spendTx)
	})
}

func (w *Wallet) spend(
	params swap.HtlcParams, htlc swap.HtlcLocator, lockTime uint32,
	buildWitness func(script []byte, amt int64, spendTx *wire.MsgTx) (wire.TxWitness, error),
) (swap.TxLocator, error) {

	if htlc.BitcoinOutpoint == nil {
		return swap.TxLocator{}, fmt.Errorf("htlc location missing bitcoin outpoint")
	}

	script, err := btc.WitnessScript(params)
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("build witness script: %w", err)
	}

	outputAmt := int64(params.Asset.Sats)

	changeAddr, err := w.Client.GetNewAddress("")
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("get change address: %w", err)
	}
	changeScript, err := txscript.PayToAddrScript(changeAddr)
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("build change script: %w", err)
	}

	spendTx := wire.NewMsgTx(2)
	spendTx.LockTime = lockTime
	sequence := wire.MaxTxInSequenceNum
	if lockTime != 0 {
		// A non-final sequence number is required for the transaction's
		// LockTime to be consulted at all.
		sequence = wire.MaxTxInSequenceNum - 1
	}
	spendTx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  htlc.BitcoinOutpoint.Hash,
			Index: htlc.BitcoinOutpoint.Index,
		},
		Sequence: sequence,
	})
	spendTx.AddTxOut(&wire.TxOut{
		PkScript: changeScript,
		Value:    outputAmt - int64(FlatFee),
	})

	witness, err := buildWitness(script, outputAmt, spendTx)
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("build witness: %w", err)
	}
	spendTx.TxIn[0].Witness = witness

	txHash, err := w.Client.SendRawTransaction(spendTx, false)
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("broadcast spend tx: %w", err)
	}
	log.Infof("broadcast spend of %s:%d as %s", htlc.BitcoinOutpoint.Hash, htlc.BitcoinOutpoint.Index, txHash)

	return swap.TxLocator{BitcoinTxid: *txHash}, nil
}

// findVout locates which output of txid pays addr, since SendToAddress
// only returns the txid.
func (w *Wallet) findVout(txid *chainhash.Hash, addr btcutil.Address) (uint32, error) {
	raw, err := w.Client.GetRawTransactionVerbose(txid)
	if err != nil {
		return 0, fmt.Errorf("get raw transaction %s: %w", txid, err)
	}

	want := addr.EncodeAddress()
	for _, out := range raw.Vout {
		for _, a := range out.ScriptPubKey.Addresses {
			if a == want {
				return out.N, nil
			}
		}
	}
	return 0, fmt.Errorf("htlc address %s not found in funding tx %s", want, txid)
}
