package chainntfs

import (
	"context"
	"time"

	"github.com/atomicswapd/swapd/swap"
)

// Observer drives one HtlcParams's Connector polling loop to completion,
// emitting each lifecycle event exactly once in causal order: Deployed,
// then Funded or IncorrectlyFunded, then exactly one of Redeemed or
// Refunded. It never maintains authoritative state itself — callers fold
// emitted events through swap.Apply and persist them; Observer only
// decides *when* to emit, not what the current SwapState is.
type Observer struct {
	Connector Connector
	PollEvery time.Duration
}

// NewObserver builds an Observer with the given poll interval, defaulting
// to 15 seconds (roughly one Bitcoin-block-relevant cadence without
// hammering a full node's RPC) when interval is zero.
func NewObserver(conn Connector, interval time.Duration) *Observer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Observer{Connector: conn, PollEvery: interval}
}

// Watch polls until the HTLC reaches a terminal state or ctx is
// cancelled, sending each event on events as it is discovered. events
// must be buffered enough not to block the generator, or the caller must
// drain it concurrently; Watch itself never drops an event.
func (o *Observer) Watch(
	ctx context.Context, params swap.HtlcParams, loc Locator, leg swap.Leg, events chan<- swap.Event,
) error {

	deploy, err := o.awaitDeploy(ctx, params, loc, leg, events)
	if err != nil {
		return err
	}
	if !deploy.Correct {
		return nil
	}

	return o.awaitSpend(ctx, params, deploy.HtlcLocation, leg, events)
}

func (o *Observer) awaitDeploy(
	ctx context.Context, params swap.HtlcParams, loc Locator, leg swap.Leg, events chan<- swap.Event,
) (DeployObservation, error) {

	var last BlockRef
	ticker := time.NewTicker(o.PollEvery)
	defer ticker.Stop()

	for {
		obs, found, err := o.Connector.FindDeploy(ctx, params, loc)
		if err != nil {
			return DeployObservation{}, err
		}
		if found {
			if missed, err := detectReorg(ctx, o.Connector, last, obs.Block); err != nil {
				return DeployObservation{}, err
			} else if missed {
				last = obs.Block
				continue
			}
			last = obs.Block

			log.Infof("%v leg: deploy observed in block %v", leg, obs.Block)
			events <- swap.Event{
				Kind: swap.EventKindDeployed, Leg: leg,
				HtlcLocation: obs.HtlcLocation, DeployTx: obs.DeployTx,
			}
			if obs.Correct {
				events <- swap.Event{
					Kind: swap.EventKindFunded, Leg: leg,
					HtlcLocation: obs.HtlcLocation, FundTx: obs.DeployTx, ActualAsset: obs.ActualAsset,
				}
			} else {
				log.Warnf("%v leg: htlc funded with unexpected asset %v", leg, obs.ActualAsset)
				events <- swap.Event{
					Kind: swap.EventKindIncorrectlyFunded, Leg: leg, ActualAsset: obs.ActualAsset,
				}
			}
			return obs, nil
		}

		if params.Expiry.Passed(time.Now()) {
			// Nothing was ever deployed and the window to do so has
			// closed; there is nothing further for this leg to wait on.
			return DeployObservation{}, nil
		}

		select {
		case <-ctx.Done():
			return DeployObservation{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (o *Observer) awaitSpend(
	ctx context.Context, params swap.HtlcParams, htlcLoc swap.HtlcLocator, leg swap.Leg, events chan<- swap.Event,
) error {

	var last BlockRef
	ticker := time.NewTicker(o.PollEvery)
	defer ticker.Stop()

	for {
		obs, found, err := o.Connector.FindSpend(ctx, params, htlcLoc)
		if err != nil {
			return err
		}
		if found {
			if missed, err := detectReorg(ctx, o.Connector, last, obs.Block); err != nil {
				return err
			} else if missed {
				last = obs.Block
				continue
			}

			if obs.Redeemed {
				log.Infof("%v leg: redeem observed in block %v", leg, obs.Block)
				events <- swap.Event{
					Kind: swap.EventKindRedeemed, Leg: leg, Secret: obs.Secret, RedeemTx: obs.Tx,
				}
			} else {
				log.Infof("%v leg: refund observed in block %v", leg, obs.Block)
				events <- swap.Event{Kind: swap.EventKindRefunded, Leg: leg, RefundTx: obs.Tx}
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
