// Package btc constructs and spends Bitcoin P2WSH hash time-locked
// contracts. The witness script shape and the ScriptBuilder-based
// construction style are adapted from the HTLC output scripts used by
// Lightning commitment transactions, simplified from their
// revocable-commitment-output form (which also guards against broadcast of
// a revoked state) down to the plain two-branch redeem/refund contract a
// cross-chain swap requires: no revocation branch, because there is no
// commitment transaction to revoke.
package btc

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/atomicswapd/swapd/swap"
)

// branchRedeem and branchRefund are the witness-stack selector bytes that
// steer execution into the corresponding OP_IF branch of the script below.
// This repo's convention (redeem=1, refund=0) is an implementation choice
// where the spec leaves the encoding open; it matches the sense of the
// teacher's own HTLC scripts, where the receiver's branch is selected by a
// leading 1.
const (
	branchRedeem = 0x01
	branchRefund = 0x00
)

// WitnessScript builds the witness script for a swap HTLC:
//
//	OP_IF
//	    OP_SIZE 32 OP_EQUALVERIFY
//	    OP_SHA256 <secret_hash> OP_EQUALVERIFY
//	    <redeem pubkey> OP_CHECKSIG
//	OP_ELSE
//	    <expiry> OP_CHECKLOCKTIMEVERIFY OP_DROP
//	    <refund pubkey> OP_CHECKSIG
//	OP_ENDIF
//
// Redeem requires the 32-byte secret and a signature from redeemPub;
// refund requires the expiry to have passed and a signature from
// refundPub.
func WitnessScript(params swap.HtlcParams) ([]byte, error) {
	if params.RedeemIdentity.BitcoinPubKey == nil || params.RefundIdentity.BitcoinPubKey == nil {
		return nil, fmt.Errorf("bitcoin htlc requires both redeem and refund pubkeys")
	}

	builder := txscript.NewScriptBuilder()

	builder.AddOp(txscript.OP_IF)
	builder.AddOp(txscript.OP_SIZE)
	builder.AddInt64(32)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_SHA256)
	hash := params.SecretHash
	builder.AddData(hash[:])
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddData(params.RedeemIdentity.BitcoinPubKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)

	builder.AddOp(txscript.OP_ELSE)
	builder.AddInt64(int64(params.Expiry))
	builder.AddOp(txscript.OP_CHECKLOCKTIMEVERIFY)
	builder.AddOp(txscript.OP_DROP)
	builder.AddData(params.RefundIdentity.BitcoinPubKey.SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddOp(txscript.OP_ENDIF)

	return builder.Script()
}

// P2WSHAddress derives the bech32 witness-script-hash address funds must
// be sent to in order to deploy the HTLC.
func P2WSHAddress(witnessScript []byte, net *chaincfg.Params) (btcutil.Address, error) {
	scriptHash := sha256.Sum256(witnessScript)
	return btcutil.NewAddressWitnessScriptHash(scriptHash[:], net)
}

// PublicKeysFromParams is a convenience accessor used by wallets assembling
// a spend; it returns (redeemKey, refundKey) in that order.
func PublicKeysFromParams(params swap.HtlcParams) (redeem, refund *btcec.PublicKey) {
	return params.RedeemIdentity.BitcoinPubKey, params.RefundIdentity.BitcoinPubKey
}
