// Copyright 2026 Tribbler Project. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kvserver hosts a kv.Backend over HTTP, so any of the in-process
// back ends (memory, Redis, Bolt) can also run as a standalone process
// addressed by internal/kv.NewHTTP.
package kvserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"tribbler/internal/kv"
)

// rpcRequest mirrors internal/kv's unexported wire envelope; Op is kept as a
// plain string here since the server and client are independent packages
// that only agree on the JSON wire shape, not Go types.
type rpcRequest struct {
	Op      string `json:"op"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	AtLeast uint64 `json:"at_least,omitempty"`
}

type rpcResponse struct {
	Value string   `json:"value,omitempty"`
	Found bool     `json:"found,omitempty"`
	Keys  []string `json:"keys,omitempty"`
	Count uint32   `json:"count,omitempty"`
	Clock uint64   `json:"clock,omitempty"`
	OK    bool     `json:"ok,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Server exposes a single kv.Backend instance over a one-endpoint JSON RPC,
// the same "store plus thin HTTP shell" split the teacher's api.Server uses
// around its core.Store.
type Server struct {
	backend kv.Backend
}

// NewServer wraps backend for serving over HTTP.
func NewServer(backend kv.Backend) *Server {
	return &Server{backend: backend}
}

// RegisterRoutes installs the RPC endpoint on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/rpc", s.handleRPC)
}

// ListenAndServe starts the HTTP server on addr with the teacher's timeout
// defaults (api/server.go's ListenAndServe).
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	fmt.Printf("kv server listening on %s\n", addr)
	return httpServer.ListenAndServe()
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, rpcResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	ctx := r.Context()
	writeJSON(w, s.dispatch(ctx, req))
}

func (s *Server) dispatch(ctx context.Context, req rpcRequest) rpcResponse {
	switch req.Op {
	case "get":
		v, ok, err := s.backend.Get(ctx, req.Key)
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Value: v, Found: ok}
	case "set":
		ok, err := s.backend.Set(ctx, kv.KeyValue{Key: req.Key, Value: req.Value})
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{OK: ok}
	case "keys":
		keys, err := s.backend.Keys(ctx, kv.Pattern{Prefix: req.Prefix, Suffix: req.Suffix})
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Keys: keys}
	case "list_get":
		vals, err := s.backend.ListGet(ctx, req.Key)
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Keys: vals}
	case "list_append":
		ok, err := s.backend.ListAppend(ctx, kv.KeyValue{Key: req.Key, Value: req.Value})
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{OK: ok}
	case "list_remove":
		n, err := s.backend.ListRemove(ctx, kv.KeyValue{Key: req.Key, Value: req.Value})
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Count: n}
	case "list_keys":
		keys, err := s.backend.ListKeys(ctx, kv.Pattern{Prefix: req.Prefix, Suffix: req.Suffix})
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Keys: keys}
	case "clock":
		c, err := s.backend.Clock(ctx, req.AtLeast)
		if err != nil {
			return errResponse(err)
		}
		return rpcResponse{Clock: c}
	default:
		return rpcResponse{Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

func errResponse(err error) rpcResponse {
	return rpcResponse{Error: err.Error()}
}

func writeJSON(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
