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

// Package main is the entry point for the Tribbler front-end server: it
// wires a Bin Router over a chosen transport to internal/front.Server and
// serves the public HTTP/JSON API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tribbler/internal/binstore"
	"tribbler/internal/front"
	"tribbler/internal/httpadapter"
	"tribbler/internal/kv"
)

func main() {
	backs := flag.String("backs", "", "comma-separated list of back-end addresses (host:port, or file paths for --backend=bolt)")
	backend := flag.String("backend", "http", "back-end transport: http, redis, bolt, or memory")
	httpAddr := flag.String("addr", ":9000", "HTTP listen address for the front-end server")
	metricsAddr := flag.String("metrics_addr", "", "if non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	flag.Parse()

	if *backs == "" {
		log.Fatal("tribserver: --backs is required")
	}
	transport, err := parseTransport(*backend)
	if err != nil {
		log.Fatalf("tribserver: %v", err)
	}

	store := binstore.NewBinClient(strings.Split(*backs, ","), transport, *metricsAddr != "")
	server := front.NewServer(store)
	adapter := httpadapter.NewAdapter(server)

	mux := http.NewServeMux()
	adapter.RegisterRoutes(mux)
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr)
	}

	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("tribserver listening on %s (backend=%s, backs=%s)\n", *httpAddr, *backend, *backs)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("tribserver: listen on %s: %v", *httpAddr, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\ntribserver: shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("tribserver: shutdown: %v", err)
	}
	fmt.Println("tribserver: stopped.")
}

func parseTransport(name string) (binstore.Transport, error) {
	switch name {
	case "http":
		return binstore.TransportHTTP, nil
	case "redis":
		return binstore.TransportRedis, nil
	case "bolt":
		return binstore.TransportBolt, nil
	case "memory":
		return binstore.TransportMemory, nil
	default:
		return 0, fmt.Errorf("unknown --backend %q (want http, redis, bolt, or memory)", name)
	}
}

// serveMetrics hosts Prometheus /metrics in its own goroutine, the same
// standalone-endpoint pattern as telemetry/churn's startMetricsEndpoint.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", kv.MetricsHandler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("tribserver: metrics server: %v", err)
	}
}
