package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/atomicswapd/swapd/swap"
)

// RedeemWitness constructs the witness stack that spends the HTLC output
// via its redeem branch: a signature from redeemKey, the 32-byte secret,
// a 1 to select the OP_IF branch, and the witness script itself.
func RedeemWitness(
	witnessScript []byte, outputAmt int64, redeemKey *btcec.PrivateKey,
	spendTx *wire.MsgTx, secret swap.Secret,
) (wire.TxWitness, error) {

	sig, err := sign(witnessScript, outputAmt, redeemKey, spendTx)
	if err != nil {
		return nil, fmt.Errorf("sign redeem witness: %w", err)
	}

	return wire.TxWitness{
		sig,
		secret[:],
		[]byte{branchRedeem},
		witnessScript,
	}, nil
}

// RefundWitness constructs the witness stack that spends the HTLC output
// via its refund branch, once Expiry has passed: a signature from
// refundKey, a 0 to select the OP_ELSE branch, and the witness script.
// The caller must set spendTx.LockTime >= the HTLC's expiry before
// signing, since OP_CHECKLOCKTIMEVERIFY validates against it.
func RefundWitness(
	witnessScript []byte, outputAmt int64, refundKey *btcec.PrivateKey,
	spendTx *wire.MsgTx,
) (wire.TxWitness, error) {

	sig, err := sign(witnessScript, outputAmt, refundKey, spendTx)
	if err != nil {
		return nil, fmt.Errorf("sign refund witness: %w", err)
	}

	return wire.TxWitness{
		sig,
		[]byte{branchRefund},
		witnessScript,
	}, nil
}

func sign(
	witnessScript []byte, outputAmt int64, key *btcec.PrivateKey,
	spendTx *wire.MsgTx,
) ([]byte, error) {

	hashCache := txscript.NewTxSigHashes(spendTx, txscript.NewCannedPrevOutputFetcher(
		witnessScript, outputAmt,
	))
	return txscript.RawTxInWitnessSignature(
		spendTx, hashCache, 0, outputAmt, witnessScript,
		txscript.SigHashAll, key,
	)
}
