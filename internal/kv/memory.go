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
	"context"
	"sync"
)

// memoryBackend is the in-process reference back end. All state lives
// under a single RWMutex held for the duration of each operation, exactly
// as spec.md §5 describes for the local reference implementation: reads
// take shared access, writes take exclusive access.
type memoryBackend struct {
	mu     sync.RWMutex
	kvs    map[string]string
	lists  map[string][]string
	clocks uint64
}

// NewMemory returns an in-memory Backend with an empty key space and a
// clock starting at 0.
func NewMemory() Backend {
	return &memoryBackend{
		kvs:   make(map[string]string),
		lists: make(map[string][]string),
	}
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kvs[key]
	return v, ok, nil
}

func (m *memoryBackend) Set(_ context.Context, kv KeyValue) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kvs[kv.Key] = kv.Value
	return true, nil
}

func (m *memoryBackend) Keys(_ context.Context, p Pattern) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.kvs {
		if p.Match(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memoryBackend) ListGet(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.lists[key]
	out := make([]string, len(src))
	copy(out, src)
	return out, nil
}

func (m *memoryBackend) ListAppend(_ context.Context, kv KeyValue) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[kv.Key] = append(m.lists[kv.Key], kv.Value)
	return true, nil
}

func (m *memoryBackend) ListRemove(_ context.Context, kv KeyValue) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.lists[kv.Key]
	if len(src) == 0 {
		return 0, nil
	}
	var removed uint32
	filtered := src[:0]
	for _, v := range src {
		if v == kv.Value {
			removed++
			continue
		}
		filtered = append(filtered, v)
	}
	m.lists[kv.Key] = filtered
	return removed, nil
}

func (m *memoryBackend) ListKeys(_ context.Context, p Pattern) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.lists {
		if p.Match(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *memoryBackend) Clock(_ context.Context, atLeast uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if atLeast > m.clocks {
		m.clocks = atLeast
	} else {
		m.clocks++
	}
	return m.clocks, nil
}
