// Package ethwallet implements swapexec.Wallet against a single Ethereum
// JSON-RPC endpoint via ethclient, signing transactions directly with a
// held private key in the keyed-transactor style the pack's abi/bind
// examples use, rather than depending on a keystore-backed signer.
package ethwallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/htlc/eth"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

// GasLimit is a flat gas budget for every HTLC deploy/redeem/refund call.
// A real deployment would call eth_estimateGas per transaction; the
// template contract's three call shapes have fixed, small gas costs, so a
// conservative flat limit is sufficient here.
const GasLimit = 200000

var _ swapexec.Wallet = (*Wallet)(nil)

// Wallet deploys, redeems, and refunds Ethereum HTLCs on behalf of a
// single account key.
type Wallet struct {
	Client  *ethclient.Client
	ChainID *big.Int
	Key     *ecdsa.PrivateKey
}

// New builds a Wallet signing with key against the given client.
func New(client *ethclient.Client, chainID *big.Int, key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{Client: client, ChainID: chainID, Key: key}
}

func (w *Wallet) address() common.Address {
	return crypto.PubkeyToAddress(w.Key.PublicKey)
}

// Deploy submits the HTLC's init code as a contract-creation transaction,
// attaching value directly for an Ether-denominated leg.
func (w *Wallet) Deploy(ctx context.Context, params swap.HtlcParams) (swap.HtlcLocator, swap.TxLocator, error) {
	initCode, err := eth.InitCode(params)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("build init code: %w", err)
	}

	value := big.NewInt(0)
	if params.Asset.Kind == swap.AssetKindEther {
		value = params.Asset.WeiAmount
	}

	signed, err := w.buildTx(ctx, nil, value, initCode)
	if err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, err
	}
	if err := w.Client.SendTransaction(ctx, signed); err != nil {
		return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("send deploy tx: %w", err)
	}

	contractAddr := crypto.CreateAddress(w.address(), signed.Nonce())

	if params.Asset.Kind == swap.AssetKindERC20 {
		if err := w.sendERC20(ctx, params.Asset.TokenContract, contractAddr, params.Asset.WeiAmount); err != nil {
			return swap.HtlcLocator{}, swap.TxLocator{}, fmt.Errorf("fund erc20 htlc: %w", err)
		}
	}

	log.Infof("deployed htlc contract %s, txid %s", contractAddr, signed.Hash())
	return swap.HtlcLocator{EthereumContract: contractAddr}, swap.TxLocator{EthereumTxid: signed.Hash()}, nil
}

// Redeem calls redeem(secret) on htlc's contract.
func (w *Wallet) Redeem(
	ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator, secret swap.Secret,
) (swap.TxLocator, error) {

	data, err := eth.RedeemCalldata(secret)
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("pack redeem calldata: %w", err)
	}
	return w.call(ctx, htlc.EthereumContract, data)
}

// Refund calls refund() on htlc's contract, once params.Expiry has passed.
func (w *Wallet) Refund(ctx context.Context, params swap.HtlcParams, htlc swap.HtlcLocator) (swap.TxLocator, error) {
	data, err := eth.RefundCalldata()
	if err != nil {
		return swap.TxLocator{}, fmt.Errorf("pack refund calldata: %w", err)
	}
	return w.call(ctx, htlc.EthereumContract, data)
}

func (w *Wallet) call(ctx context.Context, to common.Address, data []byte) (swap.TxLocator, error) {
	signed, err := w.buildTx(ctx, &to, big.NewInt(0), data)
	if err != nil {
		return swap.TxLocator{}, err
	}
	if err := w.Client.SendTransaction(ctx, signed); err != nil {
		return swap.TxLocator{}, fmt.Errorf("send tx: %w", err)
	}
	return swap.TxLocator{EthereumTxid: signed.Hash()}, nil
}

// sendERC20 submits an ERC-20 transfer(to, amount) call against token; it
// is the second of two transactions that fund an ERC20-denominated leg,
// mirroring the "first Transfer log" expectation ethobserver checks for.
func (w *Wallet) sendERC20(ctx context.Context, token, to common.Address, amount *big.Int) error {
	parsed, err := erc20TransferABI()
	if err != nil {
		return err
	}
	data, err := parsed.Pack("transfer", to, amount)
	if err != nil {
		return fmt.Errorf("pack erc20 transfer: %w", err)
	}
	signed, err := w.buildTx(ctx, &token, big.NewInt(0), data)
	if err != nil {
		return err
	}
	return w.Client.SendTransaction(ctx, signed)
}

func (w *Wallet) buildTx(ctx context.Context, to *common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	from := w.address()

	nonce, err := w.Client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := w.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(w.ChainID), w.Key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}
