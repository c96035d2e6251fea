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
	"testing"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	if _, ok, _ := b.Get(ctx, "missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
	if _, err := b.Set(ctx, KeyValue{Key: "k", Value: "v"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := b.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
}

func TestMemoryListAppendGetRemove(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	for _, v := range []string{"a", "b", "a", "c"} {
		if _, err := b.ListAppend(ctx, KeyValue{Key: "l", Value: v}); err != nil {
			t.Fatalf("ListAppend: %v", err)
		}
	}
	got, err := b.ListGet(ctx, "l")
	if err != nil {
		t.Fatalf("ListGet: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("ListGet = %v, want 4 entries", got)
	}
	n, err := b.ListRemove(ctx, KeyValue{Key: "l", Value: "a"})
	if err != nil || n != 2 {
		t.Fatalf("ListRemove = %d, %v, want 2", n, err)
	}
	got, _ = b.ListGet(ctx, "l")
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("ListGet after remove = %v, want [b c]", got)
	}
	// Removing an absent value is a no-op returning 0.
	n, err = b.ListRemove(ctx, KeyValue{Key: "l", Value: "zzz"})
	if err != nil || n != 0 {
		t.Fatalf("ListRemove absent = %d, %v, want 0", n, err)
	}
}

func TestMemoryKeysAndListKeysPattern(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	for _, k := range []string{"signup_bob", "signup_alice", "cache"} {
		if _, err := b.Set(ctx, KeyValue{Key: k, Value: "T"}); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}
	got, err := b.Keys(ctx, Pattern{Prefix: "signup_"})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Keys(signup_) = %v, want 2 entries", got)
	}
}

func TestMemoryClockMonotonic(t *testing.T) {
	ctx := context.Background()
	b := NewMemory()
	c1, err := b.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	c2, err := b.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if c2 <= c1 {
		t.Fatalf("Clock not strictly increasing: c1=%d c2=%d", c1, c2)
	}
	c3, err := b.Clock(ctx, c2+100)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if c3 != c2+100 {
		t.Fatalf("Clock(atLeast=%d) = %d, want %d", c2+100, c3, c2+100)
	}
	c4, err := b.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if c4 <= c3 {
		t.Fatalf("Clock not strictly increasing after atLeast bump: c3=%d c4=%d", c3, c4)
	}
}
