package negotiate

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/atomicswapd/swapd/swap"
)

// PeerTransport sends a Request to a peer and receives its Response, and
// symmetrically accepts incoming Requests for the local RequestHandler to
// answer. One round trip per swap: there is no further message exchange
// once a Response is returned.
type PeerTransport interface {
	// SendRequest dials addr, sends req, and blocks for the peer's
	// Response.
	SendRequest(ctx context.Context, addr string, req swap.Request) (swap.Response, error)

	// Serve accepts incoming connections on addr and calls handler for
	// each Request received, writing back whatever Response it returns.
	// Serve blocks until ctx is cancelled.
	Serve(ctx context.Context, addr string, handler RequestHandler) error
}

// RequestHandler answers an incoming Request with a Response; it is
// typically backed by a Policy plus the local Manager creating a new
// swap runner on accept.
type RequestHandler func(ctx context.Context, req swap.Request) swap.Response

// TCPTransport is the default PeerTransport: length-prefixed TLV frames
// over a plain TCP connection, one request/response pair per connection.
// A production deployment would run this over an authenticated transport
// (e.g. noise, as lnd's peer connections do); this type only concerns
// itself with framing.
type TCPTransport struct {
	DialTimeout time.Duration
}

// NewTCPTransport builds a TCPTransport with a sensible default dial
// timeout.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{DialTimeout: 10 * time.Second}
}

var _ PeerTransport = (*TCPTransport)(nil)

func (t *TCPTransport) SendRequest(ctx context.Context, addr string, req swap.Request) (swap.Response, error) {
	dialer := net.Dialer{Timeout: t.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return swap.Response{}, fmt.Errorf("dial peer %s: %w", addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	frame, err := EncodeRequest(req)
	if err != nil {
		return swap.Response{}, fmt.Errorf("encode request: %w", err)
	}
	if err := writeFrame(conn, frame); err != nil {
		return swap.Response{}, fmt.Errorf("write request frame: %w", err)
	}

	respFrame, err := readFrame(conn)
	if err != nil {
		return swap.Response{}, fmt.Errorf("read response frame: %w", err)
	}
	log.Debugf("swap %s: received response from %s", req.SwapId, addr)
	return DecodeResponse(respFrame, req.AlphaLedger, req.BetaLedger)
}

func (t *TCPTransport) Serve(ctx context.Context, addr string, handler RequestHandler) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	log.Infof("negotiation transport listening on %s", addr)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("accept connection: %w", err)
			}
		}
		go t.handleConn(ctx, conn, handler)
	}
}

func (t *TCPTransport) handleConn(ctx context.Context, conn net.Conn, handler RequestHandler) {
	defer conn.Close()

	frame, err := readFrame(conn)
	if err != nil {
		return
	}
	req, err := DecodeRequest(frame)
	if err != nil {
		log.Warnf("discarding malformed request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	resp := handler(ctx, req)
	log.Debugf("swap %s: handled request from %s", req.SwapId, conn.RemoteAddr())

	respFrame, err := EncodeResponse(resp, req.AlphaLedger, req.BetaLedger)
	if err != nil {
		return
	}
	_ = writeFrame(conn, respFrame)
}

func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

const maxFrameLen = 1 << 20

func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameLen {
		return nil, fmt.Errorf("frame too large: %d bytes", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
