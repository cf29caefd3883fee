package healthcheck

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
)

func TestMonitorReportsPersistentFailure(t *testing.T) {
	var mu sync.Mutex
	var failures int

	obs := Observation{
		Name:     "rpc",
		Interval: 5 * time.Millisecond,
		Timeout:  20 * time.Millisecond,
		Backoff:  backoff.NewConstantBackOff(time.Millisecond),
		Check: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
		OnFailure: func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			failures++
		},
	}

	m := NewMonitor(obs)
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failures >= 1
	}, time.Second, time.Millisecond)

	cancel()
	m.Stop()
}

func TestMonitorSilentOnSuccess(t *testing.T) {
	var mu sync.Mutex
	var failures, checks int

	obs := Observation{
		Name:     "wallet",
		Interval: 5 * time.Millisecond,
		Check: func(ctx context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			checks++
			return nil
		},
		OnFailure: func(name string, err error) {
			mu.Lock()
			defer mu.Unlock()
			failures++
		},
	}

	m := NewMonitor(obs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return checks >= 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, failures)
}
