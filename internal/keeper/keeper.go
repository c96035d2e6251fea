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

// Package keeper implements the clock synchronizer: a background task that
// keeps every back end's logical clock advancing in lockstep by a weak
// max-broadcast, so a timestamp chosen on one back end is never reused on
// another within a short delay window. This is not consensus.
package keeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tribbler/internal/kv"
)

// tickInterval is the fixed period between synchronization rounds.
const tickInterval = time.Second

// Config configures a Keeper.
type Config struct {
	// Backs are the back ends to synchronize, in the fixed order every
	// keeper process must agree on.
	Backs []kv.Backend
	// Addrs names each entry of Backs, for logging only.
	Addrs []string
	// This is this keeper's own index among cooperating keeper processes;
	// unused by the synchronization protocol itself but carried for
	// parity with original_source's multi-keeper config and for future
	// leader-election style extensions.
	This int
	// ID uniquely identifies this keeper instance in logs.
	ID uint64
	// Ready, if non-nil, is closed once after the keeper's goroutine has
	// started and before its first synchronization round.
	Ready chan<- struct{}
	// Shutdown signals the keeper to stop. Observed promptly between ticks.
	Shutdown <-chan struct{}
}

// Keeper runs the clock synchronization loop described by Config until its
// Shutdown channel fires.
type Keeper struct {
	cfg Config
	wg  sync.WaitGroup
}

// New constructs a Keeper from cfg. Call Start to begin synchronizing.
func New(cfg Config) *Keeper {
	return &Keeper{cfg: cfg}
}

// Start launches the keeper's background goroutine. It returns immediately;
// use cfg.Ready to learn when the loop has actually begun.
func (k *Keeper) Start() {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		k.run()
	}()
}

// Wait blocks until the keeper's goroutine has returned, i.e. until
// Shutdown has fired and the loop has observed it.
func (k *Keeper) Wait() {
	k.wg.Wait()
}

func (k *Keeper) run() {
	if k.cfg.Ready != nil {
		close(k.cfg.Ready)
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.syncOnce()
		case <-k.cfg.Shutdown:
			return
		}
	}
}

// syncOnce performs one two-pass max-broadcast round: the first pass
// collects the global max clock value across all back ends, the second
// pushes that max to every back end again, so afterward every back end's
// internal counter is >= the pre-round global max. A transport error on
// one back end aborts only that pass's contribution; it neither stops the
// round nor the keeper, matching the "retry next tick" failure semantics.
func (k *Keeper) syncOnce() {
	ctx := context.Background()
	var c uint64

	for i, backend := range k.cfg.Backs {
		next, err := backend.Clock(ctx, c)
		if err != nil {
			k.logf("pass 1: back end %s: %v", k.addr(i), err)
			continue
		}
		if next > c {
			c = next
		}
	}

	for i, backend := range k.cfg.Backs {
		next, err := backend.Clock(ctx, c)
		if err != nil {
			k.logf("pass 2: back end %s: %v", k.addr(i), err)
			continue
		}
		if next > c {
			c = next
		}
	}
}

func (k *Keeper) addr(i int) string {
	if i < len(k.cfg.Addrs) {
		return k.cfg.Addrs[i]
	}
	return fmt.Sprintf("#%d", i)
}

func (k *Keeper) logf(format string, args ...interface{}) {
	fmt.Printf("keeper %d: "+format+"\n", append([]interface{}{k.cfg.ID}, args...)...)
}
