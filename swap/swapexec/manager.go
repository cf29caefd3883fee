package swapexec

import (
	"context"
	"fmt"
	"sync"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
)

// Manager supervises one Runner goroutine per active swap. It is the
// concurrency boundary the spec requires: a panic or error in one swap's
// Runner must never affect another swap's progress, and the per-ledger
// Wallets passed to every Runner are themselves responsible for
// serializing concurrent access (see chainwallet).
type Manager struct {
	Store      Store
	Wallets    map[swap.LedgerKind]Wallet
	Connectors map[swap.LedgerKind]chainntfs.Connector

	mu      sync.Mutex
	runners map[swap.Id]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager builds an empty Manager.
func NewManager(
	store Store, wallets map[swap.LedgerKind]Wallet, connectors map[swap.LedgerKind]chainntfs.Connector,
) *Manager {
	return &Manager{
		Store:      store,
		Wallets:    wallets,
		Connectors: connectors,
		runners:    make(map[swap.Id]context.CancelFunc),
	}
}

// Start launches a Runner for id if one is not already running, and
// returns immediately; the runner's tick loop runs on its own goroutine
// until the swap reaches a terminal outcome, Stop is called, or ctx is
// cancelled.
func (m *Manager) Start(
	ctx context.Context, id swap.Id, role swap.Role, alpha, beta swap.HtlcParams,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.runners[id]; running {
		return fmt.Errorf("swap %s is already running", id)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.runners[id] = cancel

	runner := NewRunner(id, role, m.Store, m.Wallets, m.Connectors, alpha, beta)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.runners, id)
			m.mu.Unlock()
		}()

		// A single swap's tick loop must never take down the daemon;
		// an unexpected panic here is recorded against that swap only.
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("swap %s: runner panicked: %v", id, r)
				_ = m.Store.MarkFailed(context.Background(), id, fmt.Sprintf("panic: %v", r))
			}
		}()

		if err := runner.Run(runCtx); err != nil && err != context.Canceled {
			log.Debugf("swap %s: runner exited: %v", id, err)
		}
	}()

	return nil
}

// Stop cancels the Runner for id, if running. It does not block for the
// goroutine to exit; call Wait for that.
func (m *Manager) Stop(id swap.Id) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.runners[id]; ok {
		cancel()
	}
}

// Running reports whether a Runner for id is currently active.
func (m *Manager) Running(id swap.Id) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runners[id]
	return ok
}

// Wait blocks until every launched Runner goroutine has exited. Intended
// for graceful daemon shutdown after cancelling every swap's context.
func (m *Manager) Wait() {
	m.wg.Wait()
}
