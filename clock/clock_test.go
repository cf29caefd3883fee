package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultClockNow(t *testing.T) {
	c := NewDefaultClock()
	before := time.Now()
	got := c.Now()
	require.False(t, got.Before(before))
}

func TestTestClockTickAfterFiresOnAdvance(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewTestClock(start)

	ch := c.TickAfter(10 * time.Second)

	select {
	case <-ch:
		t.Fatal("tick fired before deadline")
	default:
	}

	c.SetTime(start.Add(5 * time.Second))
	select {
	case <-ch:
		t.Fatal("tick fired before deadline")
	default:
	}

	c.SetTime(start.Add(10 * time.Second))
	select {
	case got := <-ch:
		require.Equal(t, start.Add(10*time.Second), got)
	default:
		t.Fatal("tick did not fire at deadline")
	}
}

func TestTestClockTickAfterZeroDuration(t *testing.T) {
	c := NewTestClock(time.Unix(0, 0))
	ch := c.TickAfter(0)
	select {
	case <-ch:
	default:
		t.Fatal("zero-duration tick should fire immediately")
	}
}
