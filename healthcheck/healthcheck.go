// Package healthcheck runs periodic liveness probes against the daemon's
// external collaborators (chain RPC connections, wallet backends) and
// logs failures without ever surfacing them as swap-level errors: a
// wallet RPC hiccup is the daemon's problem to retry, not grounds to
// fail an in-flight swap. Adapted from the teacher's healthcheck
// submodule's stated role (only its go.mod/name were retrieved).
package healthcheck

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Observation is one liveness probe: a named check function plus how
// often and how long to retry it before logging a failure.
type Observation struct {
	Name      string
	Check     func(ctx context.Context) error
	Interval  time.Duration
	Timeout   time.Duration
	Backoff   backoff.BackOff
	OnFailure func(name string, err error)
}

// Monitor runs a fixed set of Observations on their own schedules until
// stopped. Failures are reported via each Observation's OnFailure
// callback; Monitor itself never returns an error from a failed probe.
type Monitor struct {
	observations []Observation
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewMonitor builds a Monitor over the given observations.
func NewMonitor(observations ...Observation) *Monitor {
	return &Monitor{observations: observations}
}

// Start launches one goroutine per Observation, each looping until ctx
// is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{}, len(m.observations))

	for _, obs := range m.observations {
		go m.run(runCtx, obs)
	}
}

// Stop cancels every running probe. It does not block for them to exit.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Monitor) run(ctx context.Context, obs Observation) {
	defer func() { m.done <- struct{}{} }()

	ticker := time.NewTicker(obs.Interval)
	defer ticker.Stop()

	for {
		m.probe(ctx, obs)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) probe(ctx context.Context, obs Observation) {
	probeCtx := ctx
	var cancel context.CancelFunc
	if obs.Timeout > 0 {
		probeCtx, cancel = context.WithTimeout(ctx, obs.Timeout)
		defer cancel()
	}

	policy := obs.Backoff
	if policy == nil {
		policy = backoff.NewExponentialBackOff()
	}
	policy = backoff.WithContext(policy, probeCtx)

	err := backoff.Retry(func() error {
		return obs.Check(probeCtx)
	}, policy)

	if err != nil && obs.OnFailure != nil {
		obs.OnFailure(obs.Name, err)
	}
}
