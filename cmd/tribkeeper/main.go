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

// Package main is the entry point for the Tribbler clock synchronizer: it
// dials every configured back end directly (not through the Bin Router,
// since it synchronizes whole back ends rather than per-user bins) and runs
// the keeper's periodic max-broadcast until asked to stop.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tribbler/internal/binstore"
	"tribbler/internal/keeper"
	"tribbler/internal/kv"
)

func main() {
	backs := flag.String("backs", "", "comma-separated list of back-end addresses to synchronize")
	backend := flag.String("backend", "http", "back-end transport: http, redis, bolt, or memory")
	this := flag.Int("this", 0, "this keeper's own index among cooperating keeper processes")
	id := flag.Uint64("id", 0, "unique id for this keeper instance, used in logs")
	flag.Parse()

	if *backs == "" {
		log.Fatal("tribkeeper: --backs is required")
	}
	transport, err := parseTransport(*backend)
	if err != nil {
		log.Fatalf("tribkeeper: %v", err)
	}

	addrs := strings.Split(*backs, ",")
	handles := make([]kv.Backend, 0, len(addrs))
	for _, addr := range addrs {
		b, err := binstore.Dial(transport, addr)
		if err != nil {
			log.Fatalf("tribkeeper: dial %s: %v", addr, err)
		}
		handles = append(handles, b)
	}

	ready := make(chan struct{})
	shutdown := make(chan struct{})
	k := keeper.New(keeper.Config{
		Backs:    handles,
		Addrs:    addrs,
		This:     *this,
		ID:       *id,
		Ready:    ready,
		Shutdown: shutdown,
	})
	k.Start()
	<-ready
	fmt.Printf("tribkeeper %d started, synchronizing %d back ends (backend=%s)\n", *id, len(addrs), *backend)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\ntribkeeper: shutting down...")
	close(shutdown)
	k.Wait()
	fmt.Println("tribkeeper: stopped.")
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
