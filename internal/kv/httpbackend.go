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

package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// rpcOp names one of the eight Backend operations on the wire.
type rpcOp string

const (
	opGet        rpcOp = "get"
	opSet        rpcOp = "set"
	opKeys       rpcOp = "keys"
	opListGet    rpcOp = "list_get"
	opListAppend rpcOp = "list_append"
	opListRemove rpcOp = "list_remove"
	opListKeys   rpcOp = "list_keys"
	opClock      rpcOp = "clock"
)

// rpcRequest is the single envelope every kvserver endpoint accepts.
type rpcRequest struct {
	Op      rpcOp  `json:"op"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
	Prefix  string `json:"prefix,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	AtLeast uint64 `json:"at_least,omitempty"`
}

// rpcResponse is the single envelope every kvserver endpoint returns.
type rpcResponse struct {
	Value string   `json:"value,omitempty"`
	Found bool     `json:"found,omitempty"`
	Keys  []string `json:"keys,omitempty"`
	Count uint32   `json:"count,omitempty"`
	Clock uint64   `json:"clock,omitempty"`
	OK    bool     `json:"ok,omitempty"`
	Error string   `json:"error,omitempty"`
}

// httpBackend is a thin net/http + encoding/json RPC client for a remote
// kvserver.Server, the transport named but left external by spec.md §1.
// Its shape mirrors the teacher's own preference for hand-rolled
// net/http handlers over a web framework (api/server.go never imports
// gin/echo/chi, so neither does this client).
type httpBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTP returns a Backend that speaks JSON-over-HTTP to a kvserver.Server
// listening at baseURL (e.g. "http://127.0.0.1:9000").
func NewHTTP(baseURL string) Backend {
	return &httpBackend{baseURL: baseURL, client: &http.Client{}}
}

func (h *httpBackend) call(ctx context.Context, req rpcRequest) (rpcResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("kv: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return rpcResponse{}, fmt.Errorf("kv: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("kv: %s %s: %w", req.Op, h.baseURL, err)
	}
	defer resp.Body.Close()
	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return rpcResponse{}, fmt.Errorf("kv: decode response for %s: %w", req.Op, err)
	}
	if out.Error != "" {
		return rpcResponse{}, fmt.Errorf("kv: remote error for %s: %s", req.Op, out.Error)
	}
	return out, nil
}

func (h *httpBackend) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opGet, Key: key})
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

func (h *httpBackend) Set(ctx context.Context, kv KeyValue) (bool, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opSet, Key: kv.Key, Value: kv.Value})
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (h *httpBackend) Keys(ctx context.Context, p Pattern) ([]string, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opKeys, Prefix: p.Prefix, Suffix: p.Suffix})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (h *httpBackend) ListGet(ctx context.Context, key string) ([]string, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opListGet, Key: key})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (h *httpBackend) ListAppend(ctx context.Context, kv KeyValue) (bool, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opListAppend, Key: kv.Key, Value: kv.Value})
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (h *httpBackend) ListRemove(ctx context.Context, kv KeyValue) (uint32, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opListRemove, Key: kv.Key, Value: kv.Value})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

func (h *httpBackend) ListKeys(ctx context.Context, p Pattern) ([]string, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opListKeys, Prefix: p.Prefix, Suffix: p.Suffix})
	if err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (h *httpBackend) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	resp, err := h.call(ctx, rpcRequest{Op: opClock, AtLeast: atLeast})
	if err != nil {
		return 0, err
	}
	return resp.Clock, nil
}
