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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level, label-carrying metrics registered once at init, the same
// pattern the teacher's telemetry/churn package uses for its global
// counters/histograms rather than per-instance collectors.
var (
	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tribbler_kv_calls_total",
		Help: "Total KV back-end calls by operation and outcome",
	}, []string{"op", "outcome"})

	callLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tribbler_kv_call_duration_seconds",
		Help:    "KV back-end call latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(callsTotal, callLatency)
}

// MetricsHandler returns the Prometheus scrape handler for the metrics
// registered by this package, the same exposition the teacher's
// telemetry/churn endpoint serves.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// instrumented wraps a Backend, recording a call counter and latency
// histogram per operation. Errors are tallied separately from successes so
// a dashboard can alert on error rate without parsing call outcomes.
type instrumented struct {
	next Backend
}

// Instrument wraps next so every call is recorded to Prometheus. Wrap each
// Backend once; the underlying metrics are package-global, so wrapping the
// same Backend twice double-counts.
func Instrument(next Backend) Backend {
	return &instrumented{next: next}
}

func observe(op string, start time.Time, err error) {
	callLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	callsTotal.WithLabelValues(op, outcome).Inc()
}

func (i *instrumented) Get(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(ctx, key)
	observe("get", start, err)
	return v, ok, err
}

func (i *instrumented) Set(ctx context.Context, kv KeyValue) (bool, error) {
	start := time.Now()
	ok, err := i.next.Set(ctx, kv)
	observe("set", start, err)
	return ok, err
}

func (i *instrumented) Keys(ctx context.Context, p Pattern) ([]string, error) {
	start := time.Now()
	keys, err := i.next.Keys(ctx, p)
	observe("keys", start, err)
	return keys, err
}

func (i *instrumented) ListGet(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	vals, err := i.next.ListGet(ctx, key)
	observe("list_get", start, err)
	return vals, err
}

func (i *instrumented) ListAppend(ctx context.Context, kv KeyValue) (bool, error) {
	start := time.Now()
	ok, err := i.next.ListAppend(ctx, kv)
	observe("list_append", start, err)
	return ok, err
}

func (i *instrumented) ListRemove(ctx context.Context, kv KeyValue) (uint32, error) {
	start := time.Now()
	n, err := i.next.ListRemove(ctx, kv)
	observe("list_remove", start, err)
	return n, err
}

func (i *instrumented) ListKeys(ctx context.Context, p Pattern) ([]string, error) {
	start := time.Now()
	keys, err := i.next.ListKeys(ctx, p)
	observe("list_keys", start, err)
	return keys, err
}

func (i *instrumented) Clock(ctx context.Context, atLeast uint64) (uint64, error) {
	start := time.Now()
	c, err := i.next.Clock(ctx, atLeast)
	observe("clock", start, err)
	return c, err
}
