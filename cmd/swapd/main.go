package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goerrors "github.com/go-errors/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding"

	"github.com/atomicswapd/swapd/cert"
	"github.com/atomicswapd/swapd/healthcheck"
	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/swap/negotiate"
	"github.com/atomicswapd/swapd/swap/swapdb"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

// version is set at build time via -ldflags; left at "dev" otherwise,
// matching the placeholder every lnd-family daemon prints at startup
// before a real release pipeline overrides it.
var version = "dev"

func main() {
	if err := swapdMain(); err != nil {
		fmt.Fprintln(os.Stderr, goerrors.Wrap(err, 1).ErrorStack())
		os.Exit(1)
	}
}

// swapdMain is the true entry point, separated from main so deferred
// cleanups run even when the process exits via a returned error rather
// than a panic.
func swapdMain() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := initLogRotator(
		cfg.LogDir+"/swapd.log", cfg.MaxLogFileSize, cfg.MaxLogFiles,
	); err != nil {
		return err
	}
	useLoggers()
	setLogLevels(cfg.DebugLevel)

	swpdLog.Infof("swapd version %s starting", version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := swapdb.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open swap store: %w", err)
	}
	defer db.Close()
	store := swapdb.NewStore(db)

	btcControl, err := newBitcoinControl(&cfg.Bitcoin)
	if err != nil {
		return fmt.Errorf("initialize bitcoin backend: %w", err)
	}
	ethControl, err := newEthereumControl(ctx, &cfg.Ethereum)
	if err != nil {
		return fmt.Errorf("initialize ethereum backend: %w", err)
	}
	swpdLog.Infof("bitcoin backend ready on %v", btcControl.ledger)
	swpdLog.Infof("ethereum backend ready on %v", ethControl.ledger)

	wallets := map[swap.LedgerKind]swapexec.Wallet{
		swap.LedgerKindBitcoin:  btcControl.wallet,
		swap.LedgerKindEthereum: ethControl.wallet,
	}
	balances := map[swap.LedgerKind]negotiate.BalanceChecker{
		swap.LedgerKindBitcoin:  btcControl.balance,
		swap.LedgerKindEthereum: ethControl.balance,
	}
	identities := map[swap.LedgerKind]swap.Identity{
		swap.LedgerKindBitcoin:  btcControl.identity,
		swap.LedgerKindEthereum: ethControl.identity,
	}
	connectors := map[swap.LedgerKind]chainntfs.Connector{
		swap.LedgerKindBitcoin:  btcControl.connector,
		swap.LedgerKindEthereum: ethControl.connector,
	}

	manager := swapexec.NewManager(store, wallets, connectors)
	if err := resumeActiveSwaps(ctx, store, manager); err != nil {
		return fmt.Errorf("resume active swaps: %w", err)
	}

	transport := negotiate.NewTCPTransport()
	policy := negotiate.NewDefaultPolicy(balances)

	rpcSrv := newRPCServer(store, manager, transport, policy, wallets, identities, cfg.ManualApproval)

	go func() {
		if err := transport.Serve(ctx, cfg.NegotiateListen, rpcSrv.handleInbound); err != nil && ctx.Err() == nil {
			negoLog.Errorf("negotiation transport stopped: %v", err)
		}
	}()

	if err := startHealthchecks(ctx, btcControl, ethControl); err != nil {
		return fmt.Errorf("start healthchecks: %w", err)
	}

	grpcServer, lis, err := startGRPC(cfg, rpcSrv)
	if err != nil {
		return fmt.Errorf("start grpc server: %w", err)
	}
	defer lis.Close()

	restSrv := &http.Server{Addr: cfg.RESTListen, Handler: restMux(rpcSrv)}
	go func() {
		swpdLog.Infof("REST server listening on %s", cfg.RESTListen)
		if err := restSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			swpdLog.Errorf("rest server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	swpdLog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = restSrv.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	manager.Wait()

	swpdLog.Info("shutdown complete")
	return nil
}

// resumeActiveSwaps restarts a Runner for every swap the store still
// considers active, reconstructing its alpha/beta HtlcParams from the
// persisted negotiation record rather than keeping that derived state
// around anywhere else. A swap still waiting on a peer's response or an
// operator's manual approval has no Runner to resume yet; it resumes
// itself the moment handleInbound or InitiateSwap appends its Accepted
// event and calls manager.Start.
func resumeActiveSwaps(ctx context.Context, store *swapdb.Store, manager *swapexec.Manager) error {
	ids, err := store.ListActiveSwaps(ctx)
	if err != nil {
		return fmt.Errorf("list active swaps: %w", err)
	}

	for _, id := range ids {
		state, err := store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("load swap %s: %w", id, err)
		}
		if state.Communication.Kind != swap.SwapCommunicationAccepted {
			continue
		}
		if _, terminal := state.Outcome(); terminal {
			continue
		}

		req, resp := state.Communication.Request, state.Communication.Response
		alpha := swap.HtlcParamsFor(swap.LegAlpha, req, resp)
		beta := swap.HtlcParamsFor(swap.LegBeta, req, resp)
		if err := manager.Start(ctx, id, state.Role, alpha, beta); err != nil {
			return fmt.Errorf("resume swap %s: %w", id, err)
		}
		swpdLog.Infof("resumed swap %s (role %v) from persisted state", id, state.Role)
	}
	return nil
}

// startGRPC builds the gRPC server over a self-signed TLS listener,
// generating the certificate pair on first run via cert.EnsureExists, and
// registers the hand-written SwapService_ServiceDesc against it.
func startGRPC(cfg *config, rpcSrv *rpcServer) (*grpc.Server, net.Listener, error) {
	tlsCert, err := cert.EnsureExists(cfg.TLSCertPath, cfg.TLSKeyPath, cert.Options{
		Hosts: []string{"localhost"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ensure tls certificate: %w", err)
	}

	creds := credentials.NewServerTLSFromCert(&tlsCert)
	server := grpc.NewServer(
		grpc.Creds(creds),
		grpc.ForceServerCodec(encoding.GetCodec(jsonCodecName)),
	)
	server.RegisterService(&SwapService_ServiceDesc, rpcSrv)

	lis, err := net.Listen("tcp", cfg.RPCListen)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on %s: %w", cfg.RPCListen, err)
	}
	go func() {
		swpdLog.Infof("gRPC server listening on %s", lis.Addr())
		if err := server.Serve(lis); err != nil {
			swpdLog.Debugf("grpc server exited: %v", err)
		}
	}()
	return server, lis, nil
}

// startHealthchecks wires a periodic liveness probe for each chain
// backend's RPC connection; failures are logged, never surfaced as
// swap-level errors.
func startHealthchecks(ctx context.Context, btcControl, ethControl *chainControl) error {
	monitor := healthcheck.NewMonitor(
		healthcheck.Observation{
			Name:     "bitcoin-rpc",
			Interval: 30 * time.Second,
			Timeout:  10 * time.Second,
			Check: func(ctx context.Context) error {
				_, err := btcControl.connector.LatestHeight(ctx)
				return err
			},
			OnFailure: func(name string, err error) {
				hlthLog.Warnf("%s: %v", name, err)
			},
		},
		healthcheck.Observation{
			Name:     "ethereum-rpc",
			Interval: 30 * time.Second,
			Timeout:  10 * time.Second,
			Check: func(ctx context.Context) error {
				_, err := ethControl.connector.LatestHeight(ctx)
				return err
			},
			OnFailure: func(name string, err error) {
				hlthLog.Warnf("%s: %v", name, err)
			},
		},
	)
	monitor.Start(ctx)
	return nil
}
