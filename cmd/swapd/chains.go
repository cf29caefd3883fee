package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/swap/chainntfs/btcobserver"
	"github.com/atomicswapd/swapd/swap/chainntfs/ethobserver"
	"github.com/atomicswapd/swapd/swap/chainwallet/btcwallet"
	"github.com/atomicswapd/swapd/swap/chainwallet/ethwallet"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

// chainControl couples the per-ledger collaborators the rest of the
// daemon needs: a swapexec.Wallet to act on the daemon's own behalf, a
// chainntfs.Connector for the observer poll loop, and the Ledger tag
// identifying which concrete chain is wired up. One chainControl exists
// per configured ledger, adapted from the teacher's single
// chainControl-per-backend role in chainregistry.go.
type chainControl struct {
	ledger    swap.Ledger
	wallet    swapexec.Wallet
	connector chainntfs.Connector
	balance   balanceChecker
	identity  swap.Identity
}

// balanceChecker adapts a chainControl to negotiate.BalanceChecker.
type balanceChecker interface {
	Balance(ctx context.Context, ledger swap.Ledger, asset swap.Asset) (swap.Asset, error)
}

// newBitcoinControl dials cfg.Bitcoin's RPC connection and derives the
// signing key from cfg.Bitcoin.WIFKeyPath.
func newBitcoinControl(cfg *bitcoinConfig) (*chainControl, error) {
	net, err := bitcoinNetParams(cfg.Network)
	if err != nil {
		return nil, err
	}

	certs, err := os.ReadFile(cfg.RPCCert)
	if err != nil {
		return nil, fmt.Errorf("read bitcoin rpc cert: %w", err)
	}
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         cfg.RPCHost,
		User:         cfg.RPCUser,
		Pass:         cfg.RPCPass,
		Certificates: certs,
		HTTPPostMode: true,
		DisableTLS:   false,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to bitcoin rpc: %w", err)
	}

	key, err := loadBitcoinKey(cfg.WIFKeyPath, net)
	if err != nil {
		return nil, err
	}

	ledger := swap.Bitcoin(bitcoinNetworkCode(net))
	wallet := btcwallet.New(client, net, key)
	return &chainControl{
		ledger:    ledger,
		wallet:    wallet,
		connector: btcobserver.New(client),
		balance:   btcBalance{client: client},
		identity:  swap.BitcoinIdentity(key.PubKey()),
	}, nil
}

// newEthereumControl dials cfg.Ethereum's JSON-RPC endpoint and derives
// the signing key from cfg.Ethereum.KeyPath.
func newEthereumControl(ctx context.Context, cfg *ethereumConfig) (*chainControl, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect to ethereum rpc: %w", err)
	}

	key, err := loadEthereumKey(cfg.KeyPath)
	if err != nil {
		return nil, err
	}

	ledger := swap.Ethereum(cfg.ChainID)
	wallet := ethwallet.New(client, new(big.Int).SetUint64(cfg.ChainID), key)
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &chainControl{
		ledger:    ledger,
		wallet:    wallet,
		connector: ethobserver.New(client),
		balance:   ethBalance{client: client, address: addr},
		identity:  swap.EthereumIdentity(addr),
	}, nil
}

func bitcoinNetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unrecognized bitcoin network %q", network)
	}
}

func bitcoinNetworkCode(net *chaincfg.Params) swap.BitcoinNetwork {
	switch net.Name {
	case chaincfg.MainNetParams.Name:
		return swap.BitcoinMainnet
	case chaincfg.RegressionNetParams.Name:
		return swap.BitcoinRegtest
	default:
		return swap.BitcoinTestnet
	}
}

func loadBitcoinKey(path string, net *chaincfg.Params) (*btcec.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bitcoin key file: %w", err)
	}
	wif, err := btcutil.DecodeWIF(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode bitcoin WIF key: %w", err)
	}
	return wif.PrivKey, nil
}

func loadEthereumKey(path string) (*ecdsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ethereum key file: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("decode ethereum private key: %w", err)
	}
	return key, nil
}

// btcBalance reports the daemon's spendable Bitcoin wallet balance via
// the same RPC connection btcwallet.Wallet and btcobserver.Connector use.
type btcBalance struct {
	client *rpcclient.Client
}

func (b btcBalance) Balance(ctx context.Context, ledger swap.Ledger, asset swap.Asset) (swap.Asset, error) {
	amt, err := b.client.GetBalance("")
	if err != nil {
		return swap.Asset{}, fmt.Errorf("get bitcoin wallet balance: %w", err)
	}
	return swap.BitcoinAsset(amt), nil
}

// ethBalance reports the daemon's native Ether balance. For an ERC-20
// asset it returns an error; token balances are not queried.
type ethBalance struct {
	client  *ethclient.Client
	address common.Address
}

func (b ethBalance) Balance(ctx context.Context, ledger swap.Ledger, asset swap.Asset) (swap.Asset, error) {
	if asset.Kind == swap.AssetKindERC20 {
		return swap.Asset{}, fmt.Errorf("erc20 balance check not supported by this policy; deposit reconciliation happens on deploy instead")
	}
	wei, err := b.client.BalanceAt(ctx, b.address, nil)
	if err != nil {
		return swap.Asset{}, fmt.Errorf("get ethereum balance: %w", err)
	}
	return swap.EtherAsset(wei), nil
}
