package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := New()
	q.Push(swap.Event{Kind: swap.EventKindDeployed, Leg: swap.LegAlpha})
	q.Push(swap.Event{Kind: swap.EventKindFunded, Leg: swap.LegAlpha})

	e1, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, swap.EventKindDeployed, e1.Kind)

	e2, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, swap.EventKindFunded, e2.Kind)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New()

	done := make(chan swap.Event, 1)
	go func() {
		e, ok := q.Pop()
		if ok {
			done <- e
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(swap.Event{Kind: swap.EventKindRedeemed})

	select {
	case e := <-done:
		require.Equal(t, swap.EventKindRedeemed, e.Kind)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestQueueCloseDrainsThenStops(t *testing.T) {
	q := New()
	q.Push(swap.Event{Kind: swap.EventKindDeployed})
	q.Close()

	_, ok := q.Pop()
	require.True(t, ok)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestQueueOverflowAfterClose(t *testing.T) {
	q := New()
	q.Close()
	q.Push(swap.Event{Kind: swap.EventKindDeployed})
	require.Equal(t, 1, q.Overflow())
	require.Equal(t, 0, q.Len())
}
