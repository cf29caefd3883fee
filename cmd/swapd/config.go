package main

import (
	"fmt"
	"os"
	"path/filepath"

	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "swapd.conf"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "swapd.log"
	defaultRPCListen      = "localhost:10009"
	defaultRESTListen     = "localhost:8080"
	defaultNegotiateListen = "0.0.0.0:9735"
	defaultMaxLogFileSize  = 10
	defaultMaxLogFiles     = 3
)

var defaultSwapdDir = filepath.Join(userHomeDir(), ".swapd")

// bitcoinConfig groups the Bitcoin-side options: the trusted btcd/bitcoind
// RPC connection this daemon's btcwallet.Wallet and btcobserver.Connector
// share, mirroring homeChainConfig's shape in the teacher's own config.
type bitcoinConfig struct {
	Network    string `long:"network" description:"one of mainnet, testnet, regtest" default:"testnet"`
	RPCHost    string `long:"rpchost" description:"btcd/bitcoind RPC host:port"`
	RPCUser    string `long:"rpcuser" description:"btcd/bitcoind RPC username"`
	RPCPass    string `long:"rpcpass" description:"btcd/bitcoind RPC password"`
	RPCCert    string `long:"rpccert" description:"path to btcd/bitcoind's TLS certificate"`
	WIFKeyPath string `long:"keypath" description:"path to a file holding this wallet's WIF-encoded private key"`
}

// ethereumConfig groups the Ethereum-side options.
type ethereumConfig struct {
	RPCURL     string `long:"rpcurl" description:"Ethereum JSON-RPC endpoint (http or ws)"`
	ChainID    uint64 `long:"chainid" description:"Ethereum chain id" default:"1"`
	KeyPath    string `long:"keypath" description:"path to a file holding this wallet's hex-encoded ECDSA private key"`
}

// config is the complete set of daemon options, loaded by loadConfig from
// (in increasing priority) built-in defaults, an ini config file, and
// command-line flags.
type config struct {
	SwapDir string `long:"swapdir" description:"base directory for data, logs, and the TLS certificate"`
	DataDir string `long:"datadir" description:"location of the swap event store"`
	LogDir  string `long:"logdir" description:"directory to write log files to"`

	ConfigFile string `long:"configfile" description:"path to a config file"`
	DebugLevel string `long:"debuglevel" description:"logging level for all subsystems: trace, debug, info, warn, error, critical" default:"info"`

	RPCListen      string `long:"rpclisten" description:"gRPC listen address"`
	RESTListen     string `long:"restlisten" description:"REST listen address"`
	NegotiateListen string `long:"negotiatelisten" description:"address the peer negotiation transport listens on"`

	TLSCertPath string `long:"tlscertpath" description:"path to the daemon's TLS certificate"`
	TLSKeyPath  string `long:"tlskeypath" description:"path to the daemon's TLS private key"`

	ManualApproval bool `long:"manualapproval" description:"require an operator to accept/decline every inbound swap via RespondToSwap instead of the automatic policy"`

	MaxLogFileSize int `long:"maxlogfilesize" description:"maximum log file size in MB before rotating" default:"10"`
	MaxLogFiles    int `long:"maxlogfiles" description:"number of rotated log files to retain" default:"3"`

	Bitcoin  bitcoinConfig  `group:"Bitcoin" namespace:"bitcoin"`
	Ethereum ethereumConfig `group:"Ethereum" namespace:"ethereum"`
}

// defaultConfig returns a config populated with this daemon's built-in
// defaults, before any config file or flag has been applied.
func defaultConfig() config {
	return config{
		SwapDir:         defaultSwapdDir,
		DataDir:         filepath.Join(defaultSwapdDir, defaultDataDirname),
		LogDir:          filepath.Join(defaultSwapdDir, defaultLogDirname),
		ConfigFile:      filepath.Join(defaultSwapdDir, defaultConfigFilename),
		DebugLevel:      "info",
		RPCListen:       defaultRPCListen,
		RESTListen:      defaultRESTListen,
		NegotiateListen: defaultNegotiateListen,
		TLSCertPath:     filepath.Join(defaultSwapdDir, "tls.cert"),
		TLSKeyPath:      filepath.Join(defaultSwapdDir, "tls.key"),
		MaxLogFileSize:  defaultMaxLogFileSize,
		MaxLogFiles:     defaultMaxLogFiles,
		Bitcoin:         bitcoinConfig{Network: "testnet"},
		Ethereum:        ethereumConfig{ChainID: 1},
	}
}

// loadConfig reads command-line flags twice, with an ini config file
// parsed in between, so that a -configfile flag can be honored and a
// flag can still override whatever the config file set. This mirrors the
// two-pass parse every lnd-family daemon's loadConfig performs.
func loadConfig() (*config, error) {
	preCfg := defaultConfig()
	if _, err := flags.NewParser(&preCfg, flags.Default).Parse(); err != nil {
		return nil, err
	}

	cfg := preCfg
	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			return nil, fmt.Errorf("parse config file %s: %w", preCfg.ConfigFile, err)
		}
	}
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *config) validate() error {
	switch c.Bitcoin.Network {
	case "mainnet", "testnet", "regtest":
	default:
		return fmt.Errorf("invalid bitcoin network %q", c.Bitcoin.Network)
	}
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpcurl is required")
	}
	if c.Bitcoin.RPCHost == "" {
		return fmt.Errorf("bitcoin.rpchost is required")
	}
	for _, dir := range []string{c.SwapDir, c.DataDir, c.LogDir} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
