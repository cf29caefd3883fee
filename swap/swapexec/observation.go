package swapexec

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/atomicswapd/swapd/queue"
	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/swap/htlc"
)

// watchLeg drives one leg's Connector poll loop to completion and sends
// every event it discovers on out, translating params into the Locator
// chainntfs needs via the htlc package's builder so Runner never has to
// know how a Bitcoin witness script or an Ethereum init code is built.
// A Connector error restarts the observer after an exponential backoff
// delay, without limit; the restarted observer re-reports events already
// sent, which Store.Append ignores as duplicates.
func watchLeg(
	ctx context.Context, conn chainntfs.Connector, params swap.HtlcParams, leg swap.Leg, out chan<- swap.Event,
) error {
	builder, err := htlc.For(params.Ledger)
	if err != nil {
		return err
	}
	hloc, err := builder.DeployLocator(params)
	if err != nil {
		return err
	}

	loc := chainntfs.Locator{
		WitnessScript: hloc.WitnessScript,
		P2WSHAddress:  hloc.P2WSHAddress,
		InitCode:      hloc.InitCode,
	}

	retry := backoff.NewExponentialBackOff()
	retry.MaxElapsedTime = 0
	for {
		err := chainntfs.NewObserver(conn, 0).Watch(ctx, params, loc, leg, out)
		if err == nil || ctx.Err() != nil {
			return err
		}
		log.Debugf("%v leg observer error, retrying: %v", leg, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.NextBackOff()):
		}
	}
}

// observe launches one watchLeg goroutine per leg that has a configured
// Connector, funnels every discovered event through an EventQueue so a
// slow Store.Append never blocks a leg's poll loop, and pumps the queue
// into r.Store.Append on a single goroutine so writes for this swap are
// never concurrent. It returns a function that stops every goroutine and
// blocks until they have exited.
func (r *Runner) observe(ctx context.Context) func() {
	obsCtx, cancel := context.WithCancel(ctx)
	evq := queue.New()

	var wg sync.WaitGroup
	for _, leg := range []swap.Leg{swap.LegAlpha, swap.LegBeta} {
		conn, ok := r.Connectors[r.paramsFor(leg).Ledger.Kind]
		if !ok {
			continue
		}

		wg.Add(1)
		go func(leg swap.Leg, conn chainntfs.Connector) {
			defer wg.Done()

			ch := make(chan swap.Event)
			go func() {
				for e := range ch {
					evq.Push(e)
				}
			}()

			if err := watchLeg(obsCtx, conn, r.paramsFor(leg), leg, ch); err != nil && obsCtx.Err() == nil {
				log.Warnf("swap %s: %v leg observer stopped: %v", r.SwapId, leg, err)
			}
			close(ch)
		}(leg, conn)
	}

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			e, ok := evq.Pop()
			if !ok {
				return
			}
			if err := r.Store.Append(ctx, r.SwapId, e); err != nil {
				log.Errorf("swap %s: append observed event: %v", r.SwapId, err)
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		evq.Close()
		<-pumpDone
	}
}
