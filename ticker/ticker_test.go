package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIntervalTickerDeliversTicks(t *testing.T) {
	tr := New(5 * time.Millisecond)
	tr.Start()
	defer tr.Stop()

	select {
	case <-tr.Ticks():
	case <-time.After(time.Second):
		t.Fatal("no tick received")
	}
}

func TestIntervalTickerStopHalts(t *testing.T) {
	tr := New(5 * time.Millisecond)
	tr.Start()
	tr.Stop()

	select {
	case <-tr.Ticks():
	case <-time.After(50 * time.Millisecond):
	}

	// draining whatever was in flight, a further wait should see nothing
	select {
	case <-tr.Ticks():
		t.Fatal("ticker kept firing after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMockTickerDeliversOnDemand(t *testing.T) {
	m := NewMock()
	m.Start()

	now := time.Unix(100, 0)
	go m.Tick(now)

	select {
	case got := <-m.Ticks():
		require.Equal(t, now, got)
	case <-time.After(time.Second):
		t.Fatal("mock tick not delivered")
	}
}
