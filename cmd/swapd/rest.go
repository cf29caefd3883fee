package main

import (
	"encoding/json"
	"net/http"
)

// restMux builds the daemon's REST surface directly over net/http rather
// than through grpc-gateway: grpc-gateway's reverse-proxy mux is itself
// generated from a .proto file by protoc, which this daemon has no way to
// invoke, so each endpoint below calls straight into the same rpcServer
// methods the gRPC service dispatches to.
func restMux(srv *rpcServer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/swaps/initiate", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req InitiateSwapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return srv.InitiateSwap(r.Context(), &req)
	}))

	mux.HandleFunc("/v1/swaps/respond", jsonHandler(func(r *http.Request) (interface{}, error) {
		var req RespondToSwapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		return srv.RespondToSwap(r.Context(), &req)
	}))

	mux.HandleFunc("/v1/swaps/get", jsonHandler(func(r *http.Request) (interface{}, error) {
		return srv.GetSwap(r.Context(), &GetSwapRequest{SwapId: r.URL.Query().Get("swap_id")})
	}))

	mux.HandleFunc("/v1/swaps", jsonHandler(func(r *http.Request) (interface{}, error) {
		return srv.ListSwaps(r.Context(), &ListSwapsRequest{})
	}))

	return mux
}

// jsonHandler adapts a (request) -> (response, error) function into a
// plain http.HandlerFunc, writing the response as JSON or a 400 with the
// error message.
func jsonHandler(fn func(*http.Request) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
