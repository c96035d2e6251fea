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

package binstore

import (
	"context"
	"strings"

	"tribbler/internal/kv"
	"tribbler/pkg/colon"
)

// binView rewrites every logical key into the physical key space of one
// bin (escape(user) + "::" + escape(key)) before delegating to the
// underlying kv.Backend, and strips the header back off pattern results.
// Key rewriting is a bijection on logical keys that contain no ":", so
// pattern operations return exactly the caller's own namespace.
type binView struct {
	backend kv.Backend
	prefix  string // escape(name) + "::"
}

func newBinView(backend kv.Backend, name string) *binView {
	return &binView{backend: backend, prefix: escapedPrefix(name)}
}

func (v *binView) physical(key string) string {
	return v.prefix + colon.Escape(key)
}

func (v *binView) Get(ctx context.Context, key string) (string, bool, error) {
	return v.backend.Get(ctx, v.physical(key))
}

func (v *binView) Set(ctx context.Context, arg kv.KeyValue) (bool, error) {
	return v.backend.Set(ctx, kv.KeyValue{Key: v.physical(arg.Key), Value: arg.Value})
}

func (v *binView) Keys(ctx context.Context, p kv.Pattern) ([]string, error) {
	physKeys, err := v.backend.Keys(ctx, kv.Pattern{Prefix: v.prefix + p.Prefix, Suffix: p.Suffix})
	if err != nil {
		return nil, err
	}
	return v.stripHeader(physKeys), nil
}

func (v *binView) ListGet(ctx context.Context, key string) ([]string, error) {
	return v.backend.ListGet(ctx, v.physical(key))
}

func (v *binView) ListAppend(ctx context.Context, arg kv.KeyValue) (bool, error) {
	return v.backend.ListAppend(ctx, kv.KeyValue{Key: v.physical(arg.Key), Value: arg.Value})
}

func (v *binView) ListRemove(ctx context.Context, arg kv.KeyValue) (uint32, error) {
	return v.backend.ListRemove(ctx, kv.KeyValue{Key: v.physical(arg.Key), Value: arg.Value})
}

func (v *binView) ListKeys(ctx context.Context, p kv.Pattern) ([]string, error) {
	physKeys, err := v.backend.ListKeys(ctx, kv.Pattern{Prefix: v.prefix + p.Prefix, Suffix: p.Suffix})
	if err != nil {
		return nil, err
	}
	return v.stripHeader(physKeys), nil
}

// Clock is bin-agnostic: forwarded unchanged to the underlying back end.
func (v *binView) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	return v.backend.Clock(ctx, atLeast)
}

func (v *binView) stripHeader(physKeys []string) []string {
	out := make([]string, 0, len(physKeys))
	for _, k := range physKeys {
		out = append(out, colon.Unescape(strings.TrimPrefix(k, v.prefix)))
	}
	return out
}
