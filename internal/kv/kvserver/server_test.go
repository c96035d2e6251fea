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

package kvserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tribbler/internal/kv"
)

func httpBody(s string) *strings.Reader { return strings.NewReader(s) }

// These tests exercise the server against a real kv.httpBackend client over
// httptest, the same style as the teacher's server_unit_test.go round-trips
// requests through a live *httptest.Server rather than calling handlers
// directly.

func newTestServer(t *testing.T) (*httptest.Server, kv.Backend) {
	t.Helper()
	srv := NewServer(kv.NewMemory())
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, kv.NewHTTP(ts.URL)
}

func TestServerGetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t)

	if _, ok, _ := client.Get(ctx, "missing"); ok {
		t.Fatalf("expected missing key to be absent")
	}
	if ok, err := client.Set(ctx, kv.KeyValue{Key: "k", Value: "v"}); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	v, ok, err := client.Get(ctx, "k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}
}

func TestServerListLifecycleOverHTTP(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t)

	for _, v := range []string{"x", "y", "x"} {
		if _, err := client.ListAppend(ctx, kv.KeyValue{Key: "l", Value: v}); err != nil {
			t.Fatalf("ListAppend: %v", err)
		}
	}
	got, err := client.ListGet(ctx, "l")
	if err != nil || len(got) != 3 {
		t.Fatalf("ListGet = %v, %v, want 3 entries", got, err)
	}
	n, err := client.ListRemove(ctx, kv.KeyValue{Key: "l", Value: "x"})
	if err != nil || n != 2 {
		t.Fatalf("ListRemove = %d, %v, want 2", n, err)
	}
}

func TestServerClockOverHTTP(t *testing.T) {
	ctx := context.Background()
	_, client := newTestServer(t)

	c1, err := client.Clock(ctx, 0)
	if err != nil {
		t.Fatalf("Clock: %v", err)
	}
	c2, err := client.Clock(ctx, 0)
	if err != nil || c2 <= c1 {
		t.Fatalf("Clock not monotonic: c1=%d c2=%d err=%v", c1, c2, err)
	}
}

func TestServerUnknownOp(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/rpc", "application/json", httpBody(`{"op":"bogus"}`))
	if err != nil {
		t.Fatalf("POST /rpc: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with an embedded error field, got %d", resp.StatusCode)
	}
}

func TestListenAndServeInvalidAddr(t *testing.T) {
	srv := NewServer(kv.NewMemory())
	if err := srv.ListenAndServe("127.0.0.1:notaport"); err == nil {
		t.Fatalf("expected ListenAndServe to return an error for invalid addr")
	}
}
