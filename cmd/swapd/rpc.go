package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/atomicswapd/swapd/swap"
	"github.com/atomicswapd/swapd/swap/negotiate"
	"github.com/atomicswapd/swapd/swap/swapdb"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

// Wire types for the four RPCs below. These are plain json-tagged Go
// structs rather than protoc-generated messages: the server registers a
// json grpc/encoding.Codec (see codec.go) in place of the usual protobuf
// wire format, so these types themselves are the wire schema.

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

type GetSwapResponse struct {
	Swap SwapSummary `json:"swap"`
}

type ListSwapsRequest struct{}

type ListSwapsResponse struct {
	Swaps []SwapSummary `json:"swaps"`
}

// SwapSummary flattens a swap.SwapState into the shape returned over the
// RPC surface.
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

func summarize(state swap.SwapState, running bool) SwapSummary {
	outcome, _ := state.Outcome()
	return SwapSummary{
		SwapId:     state.SwapId.String(),
		Role:       state.Role.String(),
		AlphaState: state.Alpha.Kind.String(),
		BetaState:  state.Beta.Kind.String(),
		Outcome:    outcome.Kind.String(),
		Running:    running,
		Failed:     state.Failed,
		FailReason: state.FailReason,
	}
}

// SwapServiceServer is the interface the hand-written SwapService_ServiceDesc
// dispatches to, matching the signature protoc-gen-go-grpc would have
// generated for a service with these four unary methods.
type SwapServiceServer interface {
	InitiateSwap(ctx context.Context, req *InitiateSwapRequest) (*InitiateSwapResponse, error)
	RespondToSwap(ctx context.Context, req *RespondToSwapRequest) (*RespondToSwapResponse, error)
	GetSwap(ctx context.Context, req *GetSwapRequest) (*GetSwapResponse, error)
	ListSwaps(ctx context.Context, req *ListSwapsRequest) (*ListSwapsResponse, error)
}

// rpcServer implements SwapServiceServer against a Manager, a Store, and
// this daemon's own identity/policy collaborators. One instance is built
// per daemon process and registered against the gRPC server.
type rpcServer struct {
	store     *swapdb.Store
	manager   *swapexec.Manager
	transport negotiate.PeerTransport
	policy    negotiate.Policy
	wallets   map[swap.LedgerKind]swapexec.Wallet
	identity  map[swap.LedgerKind]swap.Identity

	manualApproval bool
	pendingMu      sync.Mutex
	pending        map[swap.Id]chan swap.Response
}

func newRPCServer(
	store *swapdb.Store, manager *swapexec.Manager, transport negotiate.PeerTransport,
	policy negotiate.Policy, wallets map[swap.LedgerKind]swapexec.Wallet,
	identity map[swap.LedgerKind]swap.Identity, manualApproval bool,
) *rpcServer {
	return &rpcServer{
		store: store, manager: manager, transport: transport, policy: policy,
		wallets: wallets, identity: identity, manualApproval: manualApproval,
		pending: make(map[swap.Id]chan swap.Response),
	}
}

// InitiateSwap plays the Alice role: generate a secret, build a Request,
// send it to the peer, and on acceptance start a Runner for both legs.
func (s *rpcServer) InitiateSwap(ctx context.Context, in *InitiateSwapRequest) (*InitiateSwapResponse, error) {
	req, err := buildRequest(in, s.identity)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	secret, err := swap.NewSecret()
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	req.SecretHash = secret.Hash()

	if err := s.store.Append(ctx, req.SwapId, swap.Event{Kind: swap.EventKindProposed, Request: req}); err != nil {
		return nil, fmt.Errorf("persist proposal: %w", err)
	}
	if err := s.store.PutLocalSecret(ctx, req.SwapId, swap.RoleAlice, secret); err != nil {
		return nil, fmt.Errorf("persist secret: %w", err)
	}

	resp, err := s.transport.SendRequest(ctx, in.PeerAddress, req)
	if err != nil {
		return nil, fmt.Errorf("send request to %s: %w", in.PeerAddress, err)
	}

	if !resp.Accepted {
		if err := s.store.Append(ctx, req.SwapId, swap.Event{Kind: swap.EventKindDeclined, Request: req, Response: resp}); err != nil {
			return nil, fmt.Errorf("persist decline: %w", err)
		}
		return &InitiateSwapResponse{SwapId: req.SwapId.String(), Accepted: false, Reason: resp.DeclineReason.String()}, nil
	}

	if err := s.store.Append(ctx, req.SwapId, swap.Event{Kind: swap.EventKindAccepted, Request: req, Response: resp}); err != nil {
		return nil, fmt.Errorf("persist acceptance: %w", err)
	}

	alpha := swap.HtlcParamsFor(swap.LegAlpha, req, resp)
	beta := swap.HtlcParamsFor(swap.LegBeta, req, resp)
	if err := s.manager.Start(ctx, req.SwapId, swap.RoleAlice, alpha, beta); err != nil {
		return nil, fmt.Errorf("start runner: %w", err)
	}

	return &InitiateSwapResponse{SwapId: req.SwapId.String(), Accepted: true}, nil
}

// RespondToSwap delivers an operator's manual accept/decline decision for
// an inbound Request currently held by handleInbound, used only when this
// daemon runs with ManualApproval enabled.
func (s *rpcServer) RespondToSwap(ctx context.Context, in *RespondToSwapRequest) (*RespondToSwapResponse, error) {
	id, err := swap.IdFromHex(in.SwapId)
	if err != nil {
		return nil, fmt.Errorf("parse swap id: %w", err)
	}

	s.pendingMu.Lock()
	ch, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.pendingMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no pending inbound swap %s awaiting a response", id)
	}

	if !in.Accept {
		ch <- swap.DeclineResponse(swap.DeclineReasonUnspecified)
		return &RespondToSwapResponse{Ok: true}, nil
	}

	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load pending swap: %w", err)
	}
	req := state.Communication.Request
	alphaIdentity := s.identity[req.AlphaLedger.Kind]
	betaIdentity := s.identity[req.BetaLedger.Kind]
	ch <- swap.AcceptResponse(alphaIdentity, betaIdentity)
	return &RespondToSwapResponse{Ok: true}, nil
}

func (s *rpcServer) GetSwap(ctx context.Context, in *GetSwapRequest) (*GetSwapResponse, error) {
	id, err := swap.IdFromHex(in.SwapId)
	if err != nil {
		return nil, fmt.Errorf("parse swap id: %w", err)
	}
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load swap: %w", err)
	}
	return &GetSwapResponse{Swap: summarize(state, s.manager.Running(id))}, nil
}

func (s *rpcServer) ListSwaps(ctx context.Context, in *ListSwapsRequest) (*ListSwapsResponse, error) {
	ids, err := s.store.ListIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list swaps: %w", err)
	}

	summaries := make([]SwapSummary, 0, len(ids))
	for _, id := range ids {
		state, err := s.store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load swap %s: %w", id, err)
		}
		summaries = append(summaries, summarize(state, s.manager.Running(id)))
	}
	return &ListSwapsResponse{Swaps: summaries}, nil
}

// handleInbound is the negotiate.RequestHandler this daemon registers
// with its PeerTransport. Under automatic policy it evaluates req
// immediately; under manual approval it parks req and blocks for an
// operator's RespondToSwap call, timing out after inboundApprovalTimeout.
func (s *rpcServer) handleInbound(ctx context.Context, req swap.Request) swap.Response {
	if err := s.store.Append(ctx, req.SwapId, swap.Event{Kind: swap.EventKindProposed, Request: req}); err != nil {
		return swap.DeclineResponse(swap.DeclineReasonUnspecified)
	}
	if err := s.store.SetRole(ctx, req.SwapId, swap.RoleBob); err != nil {
		return swap.DeclineResponse(swap.DeclineReasonUnspecified)
	}

	var resp swap.Response
	if s.manualApproval {
		resp = s.awaitManualResponse(ctx, req)
	} else {
		reason, ok := s.policy.Evaluate(ctx, req)
		if !ok {
			resp = swap.DeclineResponse(reason)
		} else {
			resp = swap.AcceptResponse(s.identity[req.AlphaLedger.Kind], s.identity[req.BetaLedger.Kind])
		}
	}

	kind := swap.EventKindDeclined
	if resp.Accepted {
		kind = swap.EventKindAccepted
	}
	if err := s.store.Append(ctx, req.SwapId, swap.Event{Kind: kind, Request: req, Response: resp}); err != nil {
		return swap.DeclineResponse(swap.DeclineReasonUnspecified)
	}

	if resp.Accepted {
		alpha := swap.HtlcParamsFor(swap.LegAlpha, req, resp)
		beta := swap.HtlcParamsFor(swap.LegBeta, req, resp)
		_ = s.manager.Start(ctx, req.SwapId, swap.RoleBob, alpha, beta)
	}
	return resp
}

const inboundApprovalTimeout = 5 * time.Minute

func (s *rpcServer) awaitManualResponse(ctx context.Context, req swap.Request) swap.Response {
	ch := make(chan swap.Response, 1)
	s.pendingMu.Lock()
	s.pending[req.SwapId] = ch
	s.pendingMu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, inboundApprovalTimeout)
	defer cancel()

	select {
	case resp := <-ch:
		return resp
	case <-waitCtx.Done():
		s.pendingMu.Lock()
		delete(s.pending, req.SwapId)
		s.pendingMu.Unlock()
		return swap.DeclineResponse(swap.DeclineReasonUnspecified)
	}
}

func buildRequest(in *InitiateSwapRequest, identity map[swap.LedgerKind]swap.Identity) (swap.Request, error) {
	alphaLedger, err := parseLedger(in.AlphaLedger)
	if err != nil {
		return swap.Request{}, fmt.Errorf("alpha_ledger: %w", err)
	}
	betaLedger, err := parseLedger(in.BetaLedger)
	if err != nil {
		return swap.Request{}, fmt.Errorf("beta_ledger: %w", err)
	}

	alphaAsset, err := parseAsset(alphaLedger, in.AlphaAmount, "")
	if err != nil {
		return swap.Request{}, fmt.Errorf("alpha_amount: %w", err)
	}
	betaAsset, err := parseAsset(betaLedger, in.BetaAmount, in.BetaToken)
	if err != nil {
		return swap.Request{}, fmt.Errorf("beta_amount: %w", err)
	}

	return swap.Request{
		SwapId:              swap.NewId(),
		AlphaLedger:         alphaLedger,
		BetaLedger:          betaLedger,
		AlphaAsset:          alphaAsset,
		BetaAsset:           betaAsset,
		AlphaRefundIdentity: identity[alphaLedger.Kind],
		BetaRedeemIdentity:  identity[betaLedger.Kind],
		AlphaExpiry:         swap.ExpiryAt(time.Unix(in.AlphaExpiry, 0)),
		BetaExpiry:          swap.ExpiryAt(time.Unix(in.BetaExpiry, 0)),
	}, nil
}

// SwapService_ServiceDesc is the hand-written equivalent of what
// protoc-gen-go-grpc would emit for a SwapService with these four unary
// RPCs: a grpc.ServiceDesc naming each method and its dispatch handler,
// registered directly against the server in main.go rather than through
// generated _grpc.pb.go registration code.
var SwapService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "swapd.SwapService",
	HandlerType: (*SwapServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "InitiateSwap", Handler: _SwapService_InitiateSwap_Handler},
		{MethodName: "RespondToSwap", Handler: _SwapService_RespondToSwap_Handler},
		{MethodName: "GetSwap", Handler: _SwapService_GetSwap_Handler},
		{MethodName: "ListSwaps", Handler: _SwapService_ListSwaps_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "swapd.rpc",
}

func _SwapService_InitiateSwap_Handler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(InitiateSwapRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwapServiceServer).InitiateSwap(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swapd.SwapService/InitiateSwap"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwapServiceServer).InitiateSwap(ctx, req.(*InitiateSwapRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SwapService_RespondToSwap_Handler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(RespondToSwapRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwapServiceServer).RespondToSwap(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swapd.SwapService/RespondToSwap"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwapServiceServer).RespondToSwap(ctx, req.(*RespondToSwapRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SwapService_GetSwap_Handler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(GetSwapRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwapServiceServer).GetSwap(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swapd.SwapService/GetSwap"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwapServiceServer).GetSwap(ctx, req.(*GetSwapRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SwapService_ListSwaps_Handler(
	srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor,
) (interface{}, error) {
	in := new(ListSwapsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwapServiceServer).ListSwaps(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/swapd.SwapService/ListSwaps"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwapServiceServer).ListSwaps(ctx, req.(*ListSwapsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
