package swapexec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

type fakeStore struct {
	mu        sync.Mutex
	states    map[swap.Id]swap.SwapState
	failed    map[swap.Id]string
	completed map[swap.Id]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[swap.Id]swap.SwapState), failed: make(map[swap.Id]string)}
}

func (f *fakeStore) Load(ctx context.Context, id swap.Id) (swap.SwapState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[id], nil
}

func (f *fakeStore) Append(ctx context.Context, id swap.Id, e swap.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.states[id]
	f.states[id] = swap.Apply(s, e)
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id swap.Id, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = reason
	s := f.states[id]
	s.Failed = true
	s.FailReason = reason
	f.states[id] = s
	return nil
}

func (f *fakeStore) MarkCompleted(ctx context.Context, id swap.Id, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed == nil {
		f.completed = make(map[swap.Id]time.Time)
	}
	f.completed[id] = completedAt
	return nil
}

func TestManagerStartRejectsDuplicate(t *testing.T) {
	store := newFakeStore()
	m := NewManager(store, nil, nil)

	id := swap.NewId()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx, id, swap.RoleBob, swap.HtlcParams{}, swap.HtlcParams{}))
	require.True(t, m.Running(id))

	err := m.Start(ctx, id, swap.RoleBob, swap.HtlcParams{}, swap.HtlcParams{})
	require.Error(t, err)

	m.Stop(id)
	waitDone(t, m)
}

func TestManagerRunnerExitsOnTerminalState(t *testing.T) {
	store := newFakeStore()
	// Declined swaps are terminal immediately, so the runner should exit
	// on its own without needing Stop.
	id := swap.NewId()
	store.states[id] = swap.SwapState{Communication: swap.SwapCommunication{Kind: swap.SwapCommunicationDeclined}}

	m := NewManager(store, nil, nil)
	require.NoError(t, m.Start(context.Background(), id, swap.RoleBob, swap.HtlcParams{}, swap.HtlcParams{}))

	waitDone(t, m)
	require.False(t, m.Running(id))
}

func waitDone(t *testing.T, m *Manager) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("manager runners did not exit in time")
	}
}
