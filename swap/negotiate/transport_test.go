package negotiate

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomicswapd/swapd/swap"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestTCPTransportRoundTrip(t *testing.T) {
	transport := NewTCPTransport()
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := func(ctx context.Context, req swap.Request) swap.Response {
		return swap.AcceptResponse(swap.Identity{}, swap.Identity{})
	}

	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = transport.Serve(ctx, addr, handler)
	}()
	<-ready
	time.Sleep(50 * time.Millisecond)

	req := swap.Request{
		SwapId:      swap.NewId(),
		AlphaLedger: swap.Bitcoin(swap.BitcoinRegtest),
		BetaLedger:  swap.Ethereum(1337),
	}

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()

	resp, err := transport.SendRequest(callCtx, addr, req)
	require.NoError(t, err)
	require.True(t, resp.Accepted)
}

func TestTCPTransportSendRequestNoListener(t *testing.T) {
	transport := NewTCPTransport()
	addr := freeAddr(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := transport.SendRequest(ctx, addr, swap.Request{})
	require.Error(t, err)
}
