package main

import (
	"context"

	"google.golang.org/grpc"
)

// Request/response types mirror cmd/swapd's rpc.go exactly: this client
// and the daemon's server exchange the same json-tagged structs, since
// neither side has protoc-generated code to share a .proto-defined
// contract.

type InitiateSwapRequest struct {
	PeerAddress string `json:"peer_address"`
	AlphaLedger string `json:"alpha_ledger"`
	BetaLedger  string `json:"beta_ledger"`
	AlphaAmount string `json:"alpha_amount"`
	BetaAmount  string `json:"beta_amount"`
	BetaToken   string `json:"beta_token,omitempty"`
	AlphaExpiry int64  `json:"alpha_expiry"`
	BetaExpiry  int64  `json:"beta_expiry"`
}

type InitiateSwapResponse struct {
	SwapId   string `json:"swap_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type RespondToSwapRequest struct {
	SwapId string `json:"swap_id"`
	Accept bool   `json:"accept"`
	Reason string `json:"reason,omitempty"`
}

type RespondToSwapResponse struct {
	Ok bool `json:"ok"`
}

type GetSwapRequest struct {
	SwapId string `json:"swap_id"`
}

type SwapSummary struct {
	SwapId     string `json:"swap_id"`
	Role       string `json:"role"`
	AlphaState string `json:"alpha_state"`
	BetaState  string `json:"beta_state"`
	Outcome    string `json:"outcome"`
	Running    bool   `json:"running"`
	Failed     bool   `json:"failed"`
	FailReason string `json:"fail_reason,omitempty"`
}

type GetSwapResponse struct {
	Swap SwapSummary `json:"swap"`
}

type ListSwapsRequest struct{}

type ListSwapsResponse struct {
	Swaps []SwapSummary `json:"swaps"`
}

// SwapServiceClient is the hand-written equivalent of what
// protoc-gen-go-grpc would generate for a SwapServiceClient: each method
// just calls ClientConn.Invoke against the same fully-qualified method
// name cmd/swapd's SwapService_ServiceDesc registers.
type SwapServiceClient interface {
	InitiateSwap(ctx context.Context, in *InitiateSwapRequest, opts ...grpc.CallOption) (*InitiateSwapResponse, error)
	RespondToSwap(ctx context.Context, in *RespondToSwapRequest, opts ...grpc.CallOption) (*RespondToSwapResponse, error)
	GetSwap(ctx context.Context, in *GetSwapRequest, opts ...grpc.CallOption) (*GetSwapResponse, error)
	ListSwaps(ctx context.Context, in *ListSwapsRequest, opts ...grpc.CallOption) (*ListSwapsResponse, error)
}

type swapServiceClient struct {
	cc *grpc.ClientConn
}

// NewSwapServiceClient wraps conn as a SwapServiceClient.
func NewSwapServiceClient(conn *grpc.ClientConn) SwapServiceClient {
	return &swapServiceClient{cc: conn}
}

func (c *swapServiceClient) InitiateSwap(ctx context.Context, in *InitiateSwapRequest, opts ...grpc.CallOption) (*InitiateSwapResponse, error) {
	out := new(InitiateSwapResponse)
	if err := c.cc.Invoke(ctx, "/swapd.SwapService/InitiateSwap", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *swapServiceClient) RespondToSwap(ctx context.Context, in *RespondToSwapRequest, opts ...grpc.CallOption) (*RespondToSwapResponse, error) {
	out := new(RespondToSwapResponse)
	if err := c.cc.Invoke(ctx, "/swapd.SwapService/RespondToSwap", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *swapServiceClient) GetSwap(ctx context.Context, in *GetSwapRequest, opts ...grpc.CallOption) (*GetSwapResponse, error) {
	out := new(GetSwapResponse)
	if err := c.cc.Invoke(ctx, "/swapd.SwapService/GetSwap", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *swapServiceClient) ListSwaps(ctx context.Context, in *ListSwapsRequest, opts ...grpc.CallOption) (*ListSwapsResponse, error) {
	out := new(ListSwapsResponse)
	if err := c.cc.Invoke(ctx, "/swapd.SwapService/ListSwaps", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
