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

// Package binstore implements the Bin Router and per-user BinView on top
// of internal/kv's Backend contract: sharding a user name to a back end by
// a fixed hash, then rewriting logical keys into that back end's physical
// key space.
package binstore

import (
	"fmt"
	"hash/fnv"
	"sync"

	"tribbler/internal/kv"
	"tribbler/pkg/colon"
	"tribbler/pkg/trib"
)

// BinView is the full KV surface scoped to one logical namespace (a user,
// or the general bin when name is "").
type BinView = kv.Backend

// BinStorage routes a bin name to the back end that owns it.
type BinStorage interface {
	Bin(name string) (BinView, error)
}

// Transport names the wire protocol NewBinClient dials backend addresses
// with. Values mirror cmd/tribserver's --backend flag.
type Transport int

const (
	// TransportHTTP dials internal/kv/kvserver over JSON RPC, the default
	// used when back ends run as separate processes.
	TransportHTTP Transport = iota
	// TransportRedis dials a Redis server directly.
	TransportRedis
	// TransportBolt opens a local BoltDB file.
	TransportBolt
	// TransportMemory addresses in-process memory back ends, used by tests
	// that want deterministic single-process sharding without any I/O.
	TransportMemory
)

// binClient is a BinStorage over N fixed back-end addresses, sharding by
// FNV-1a 64-bit mod N (the same hash the corpus uses for churn-key
// sampling and shard-balance testing). Per-address kv.Backend handles are
// constructed lazily and cached, mirroring the teacher's Store.GetOrCreate
// lazy-allocate-on-miss pattern.
type binClient struct {
	backs      []string
	transport  Transport
	instrument bool
	handles    sync.Map // address -> kv.Backend
}

// NewBinClient returns a BinStorage sharding across backs using transport
// to reach each one. Constructing it performs no I/O; back-end handles are
// created lazily on first Bin call for a given shard. When instrument is
// true, every dialed back end is wrapped with kv.Instrument so its call
// volume and latency are recorded to the package's Prometheus metrics.
func NewBinClient(backs []string, transport Transport, instrument bool) BinStorage {
	return &binClient{backs: backs, transport: transport, instrument: instrument}
}

// Bin implements BinStorage.
func (c *binClient) Bin(name string) (BinView, error) {
	if len(c.backs) == 0 {
		return nil, fmt.Errorf("binstore: no back ends configured")
	}
	idx := shardIndex(name, len(c.backs))
	addr := c.backs[idx]
	backend, err := c.backendFor(addr)
	if err != nil {
		return nil, err
	}
	return newBinView(backend, name), nil
}

// backendFor returns the cached kv.Backend for addr, constructing one on
// first use. Fast path mirrors core.Store.GetOrCreate: a Load first, only
// allocating and racing a LoadOrStore on miss.
func (c *binClient) backendFor(addr string) (kv.Backend, error) {
	if actual, ok := c.handles.Load(addr); ok {
		return actual.(kv.Backend), nil
	}

	backend, err := Dial(c.transport, addr)
	if err != nil {
		return nil, err
	}
	if c.instrument {
		backend = kv.Instrument(backend)
	}

	if actual, loaded := c.handles.LoadOrStore(addr, backend); loaded {
		return actual.(kv.Backend), nil
	}
	return backend, nil
}

// Dial constructs a raw kv.Backend handle for addr over transport. Exported
// so callers that need whole-back-end handles rather than per-user bins
// (cmd/tribkeeper's clock synchronizer) can reuse the same dialing logic as
// the Bin Router.
func Dial(transport Transport, addr string) (kv.Backend, error) {
	switch transport {
	case TransportHTTP:
		return kv.NewHTTP("http://" + addr), nil
	case TransportRedis:
		return kv.NewRedis(addr), nil
	case TransportBolt:
		return kv.NewBolt(addr)
	case TransportMemory:
		return kv.NewMemory(), nil
	default:
		return nil, fmt.Errorf("binstore: unknown transport %d", transport)
	}
}

// shardIndex deterministically maps name to a back-end index in [0, n).
// FNV-1a 64-bit, the house hash already used twice in the corpus for
// exactly this kind of deterministic-partition decision.
func shardIndex(name string, n int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum64() % uint64(n))
}

// escapedPrefix returns the physical key prefix for a bin named name,
// per the escape(user) + "::" formula. The general bin (name == "")
// yields the bare "::" prefix.
func escapedPrefix(name string) string {
	return colon.Escape(name) + trib.BinSeparator
}
