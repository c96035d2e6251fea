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

// Package front implements the public Tribbler service contract: sign-up,
// posting, following, and home-feed assembly, each built from the Bin
// Router's per-user KV surface. Every method validates user names and
// signup status before doing any work.
package front

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tribbler/internal/binstore"
	"tribbler/internal/kv"
	"tribbler/pkg/trib"
)

// Server is the front-end service. It holds no mutable state of its own;
// every operation reads and writes through store, so concurrent calls are
// safe without any front-end-local locking.
type Server struct {
	store binstore.BinStorage
}

// NewServer returns a front-end Server backed by store.
func NewServer(store binstore.BinStorage) *Server {
	return &Server{store: store}
}

func (s *Server) generalBin() (binstore.BinView, error) {
	return s.store.Bin("")
}

// isSignedUp reports whether user has ever signed up, per the
// signup_<user> marker in the general bin.
func (s *Server) isSignedUp(ctx context.Context, user string) (bool, error) {
	general, err := s.generalBin()
	if err != nil {
		return false, trib.Errorf("front: general bin: %w", err)
	}
	_, ok, err := general.Get(ctx, trib.SignupKeyPrefix+user)
	if err != nil {
		return false, trib.Errorf("front: signup check for %q: %w", user, err)
	}
	return ok, nil
}

// validateSignedUp validates name's shape and checks that it has signed up,
// returning the appropriate typed error otherwise. Every Server method
// calls this first for every user name it receives.
func (s *Server) validateSignedUp(ctx context.Context, name string) error {
	if !trib.IsValidUsername(name) {
		return &trib.Error{Kind: trib.InvalidUsername, Who: name}
	}
	ok, err := s.isSignedUp(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return &trib.Error{Kind: trib.UserDoesNotExist, Who: name}
	}
	return nil
}

// SignUp registers a new user. Two concurrent sign-ups may both observe
// absence and both succeed; the specification accepts this race.
func (s *Server) SignUp(ctx context.Context, user string) error {
	if !trib.IsValidUsername(user) {
		return &trib.Error{Kind: trib.InvalidUsername, Who: user}
	}
	general, err := s.generalBin()
	if err != nil {
		return trib.Errorf("front: general bin: %w", err)
	}
	key := trib.SignupKeyPrefix + user
	if _, ok, err := general.Get(ctx, key); err != nil {
		return trib.Errorf("front: sign_up get: %w", err)
	} else if ok {
		return &trib.Error{Kind: trib.UsernameTaken, Who: user}
	}
	if _, err := general.Set(ctx, kv.KeyValue{Key: key, Value: "T"}); err != nil {
		return trib.Errorf("front: sign_up set: %w", err)
	}
	return nil
}

// ListUsers returns up to MinListUser user names, alphabetically sorted.
// The general bin's "cache" list is used as a capped cache: once it holds
// at least MinListUser names it is returned as-is without rescanning
// signups, matching the "no invalidation once full" design.
func (s *Server) ListUsers(ctx context.Context) ([]string, error) {
	general, err := s.generalBin()
	if err != nil {
		return nil, trib.Errorf("front: general bin: %w", err)
	}
	cached, err := general.ListGet(ctx, "cache")
	if err != nil {
		return nil, trib.Errorf("front: list_users cache read: %w", err)
	}
	if len(cached) >= trib.MinListUser {
		return cached, nil
	}

	signupKeys, err := general.Keys(ctx, kv.Pattern{Prefix: trib.SignupKeyPrefix})
	if err != nil {
		return nil, trib.Errorf("front: list_users signup scan: %w", err)
	}
	seen := make(map[string]bool, len(signupKeys))
	users := make([]string, 0, len(signupKeys))
	for _, k := range signupKeys {
		name := strings.TrimPrefix(k, trib.SignupKeyPrefix)
		if !seen[name] {
			seen[name] = true
			users = append(users, name)
		}
	}
	sort.Strings(users)
	if len(users) > trib.MinListUser {
		users = users[:trib.MinListUser]
	}

	for _, old := range cached {
		if _, err := general.ListRemove(ctx, kv.KeyValue{Key: "cache", Value: old}); err != nil {
			return nil, trib.Errorf("front: list_users cache clear: %w", err)
		}
	}
	for _, u := range users {
		if _, err := general.ListAppend(ctx, kv.KeyValue{Key: "cache", Value: u}); err != nil {
			return nil, trib.Errorf("front: list_users cache rebuild: %w", err)
		}
	}
	return users, nil
}

// Post appends a new Trib authored by who. clockHint is the lower bound
// the caller requests for the assigned logical clock value.
func (s *Server) Post(ctx context.Context, who, message string, clockHint uint64) error {
	if !trib.IsValidUsername(who) {
		return &trib.Error{Kind: trib.InvalidUsername, Who: who}
	}
	if len(message) > trib.MaxTribLen {
		return &trib.Error{Kind: trib.TribTooLong, Who: who}
	}
	ok, err := s.isSignedUp(ctx, who)
	if err != nil {
		return err
	}
	if !ok {
		return &trib.Error{Kind: trib.UserDoesNotExist, Who: who}
	}

	bin, err := s.store.Bin(who)
	if err != nil {
		return trib.Errorf("front: bin(%q): %w", who, err)
	}
	c, err := bin.Clock(ctx, clockHint)
	if err != nil {
		return trib.Errorf("front: post clock: %w", err)
	}
	t := trib.Trib{User: who, Message: message, Time: uint64(time.Now().Unix()), Clock: c}
	encoded, err := json.Marshal(&t)
	if err != nil {
		return trib.Errorf("front: post encode: %w", err)
	}
	if _, err := bin.ListAppend(ctx, kv.KeyValue{Key: "tribs", Value: string(encoded)}); err != nil {
		return trib.Errorf("front: post append: %w", err)
	}
	return nil
}

// Tribs returns at most MaxTribFetch most recent Tribs authored by user,
// garbage-collecting any older entries past that cap from storage.
func (s *Server) Tribs(ctx context.Context, user string) ([]*trib.Trib, error) {
	if err := s.validateSignedUp(ctx, user); err != nil {
		return nil, err
	}
	bin, err := s.store.Bin(user)
	if err != nil {
		return nil, trib.Errorf("front: bin(%q): %w", user, err)
	}
	raw, err := bin.ListGet(ctx, "tribs")
	if err != nil {
		return nil, trib.Errorf("front: tribs read: %w", err)
	}

	type entry struct {
		raw string
		t   *trib.Trib
	}
	entries := make([]entry, 0, len(raw))
	for _, r := range raw {
		var t trib.Trib
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, trib.Errorf("front: tribs decode: %w", err)
		}
		entries = append(entries, entry{raw: r, t: &t})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].t.Less(entries[j].t) })

	if len(entries) > trib.MaxTribFetch {
		stale := len(entries) - trib.MaxTribFetch
		for i := 0; i < stale; i++ {
			// Idempotent: removing an already-absent value is a no-op
			// returning count 0, so a retried GC pass is harmless.
			if _, err := bin.ListRemove(ctx, kv.KeyValue{Key: "tribs", Value: entries[i].raw}); err != nil {
				return nil, trib.Errorf("front: tribs gc: %w", err)
			}
		}
		entries = entries[stale:]
	}

	out := make([]*trib.Trib, len(entries))
	for i, e := range entries {
		out[i] = e.t
	}
	return out, nil
}

// parseLogEntry splits a "<clock>::<action>::<whom>" log entry.
func parseLogEntry(entry string) (clock uint64, action, whom string, err error) {
	parts := strings.SplitN(entry, trib.LogSeparator, 3)
	if len(parts) != 3 {
		return 0, "", "", fmt.Errorf("malformed log entry %q", entry)
	}
	clock, err = strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", "", fmt.Errorf("malformed log entry clock %q: %w", entry, err)
	}
	return clock, parts[1], parts[2], nil
}

// applyLogEntry updates the followee set F in place per one replayed entry.
func applyLogEntry(f map[string]bool, action, whom string) {
	switch action {
	case "follow":
		if !f[whom] && len(f) < trib.MaxFollowing {
			f[whom] = true
		}
	case "unfollow":
		delete(f, whom)
	}
}

// followOrUnfollow appends an action ("follow" or "unfollow") targeting whom to
// who's log and replays it to arbitrate concurrency, using the
// append-and-read-back protocol from the service contract. decide is
// called with the followee set as built from every entry strictly before
// the one this call appended; its return value (if non-nil) is returned to
// the caller immediately. If decide returns nil, the call is a success.
func (s *Server) followOrUnfollow(ctx context.Context, who, whom, action string, decide func(f map[string]bool) error) error {
	if who == whom {
		return &trib.Error{Kind: trib.WhoWhom, Who: who, Whom: whom}
	}
	if !trib.IsValidUsername(who) {
		return &trib.Error{Kind: trib.InvalidUsername, Who: who}
	}
	if !trib.IsValidUsername(whom) {
		return &trib.Error{Kind: trib.InvalidUsername, Who: whom}
	}
	if ok, err := s.isSignedUp(ctx, who); err != nil {
		return err
	} else if !ok {
		return &trib.Error{Kind: trib.UserDoesNotExist, Who: who}
	}
	if ok, err := s.isSignedUp(ctx, whom); err != nil {
		return err
	} else if !ok {
		return &trib.Error{Kind: trib.UserDoesNotExist, Who: whom}
	}

	bin, err := s.store.Bin(who)
	if err != nil {
		return trib.Errorf("front: bin(%q): %w", who, err)
	}
	c, err := bin.Clock(ctx, 0)
	if err != nil {
		return trib.Errorf("front: %s clock: %w", action, err)
	}
	entry := trib.FollowLogEntry(c, action, whom)
	if _, err := bin.ListAppend(ctx, kv.KeyValue{Key: "log", Value: entry}); err != nil {
		return trib.Errorf("front: %s append: %w", action, err)
	}

	log, err := bin.ListGet(ctx, "log")
	if err != nil {
		return trib.Errorf("front: %s replay: %w", action, err)
	}

	f := make(map[string]bool)
	for _, le := range log {
		clock, act, target, perr := parseLogEntry(le)
		if perr != nil {
			return trib.Errorf("front: %s: %w", action, perr)
		}
		if clock == c && act == action && target == whom {
			return decide(f)
		}
		applyLogEntry(f, act, target)
	}
	return trib.Errorf("front: %s: appended log entry not found on replay", action)
}

// Follow makes who follow whom.
func (s *Server) Follow(ctx context.Context, who, whom string) error {
	return s.followOrUnfollow(ctx, who, whom, "follow", func(f map[string]bool) error {
		if f[whom] {
			return &trib.Error{Kind: trib.AlreadyFollowing, Who: who, Whom: whom}
		}
		if len(f) >= trib.MaxFollowing {
			return &trib.Error{Kind: trib.FollowingTooMany, Who: who, Whom: whom}
		}
		return nil
	})
}

// Unfollow makes who stop following whom.
func (s *Server) Unfollow(ctx context.Context, who, whom string) error {
	return s.followOrUnfollow(ctx, who, whom, "unfollow", func(f map[string]bool) error {
		if !f[whom] {
			return &trib.Error{Kind: trib.NotFollowing, Who: who, Whom: whom}
		}
		return nil
	})
}

// IsFollowing reports whether who follows whom.
func (s *Server) IsFollowing(ctx context.Context, who, whom string) (bool, error) {
	if !trib.IsValidUsername(who) {
		return false, &trib.Error{Kind: trib.InvalidUsername, Who: who}
	}
	if !trib.IsValidUsername(whom) {
		return false, &trib.Error{Kind: trib.InvalidUsername, Who: whom}
	}
	if who == whom {
		return false, &trib.Error{Kind: trib.WhoWhom, Who: who, Whom: whom}
	}
	if ok, err := s.isSignedUp(ctx, who); err != nil {
		return false, err
	} else if !ok {
		return false, &trib.Error{Kind: trib.UserDoesNotExist, Who: who}
	}
	if ok, err := s.isSignedUp(ctx, whom); err != nil {
		return false, err
	} else if !ok {
		return false, &trib.Error{Kind: trib.UserDoesNotExist, Who: whom}
	}

	followees, err := s.Following(ctx, who)
	if err != nil {
		return false, err
	}
	for _, f := range followees {
		if f == whom {
			return true, nil
		}
	}
	return false, nil
}

// Following returns who's current followees, sorted ascending, replaying
// the full follow/unfollow log with no decision step.
func (s *Server) Following(ctx context.Context, who string) ([]string, error) {
	if err := s.validateSignedUp(ctx, who); err != nil {
		return nil, err
	}
	bin, err := s.store.Bin(who)
	if err != nil {
		return nil, trib.Errorf("front: bin(%q): %w", who, err)
	}
	log, err := bin.ListGet(ctx, "log")
	if err != nil {
		return nil, trib.Errorf("front: following replay: %w", err)
	}
	f := make(map[string]bool)
	for _, le := range log {
		_, act, target, perr := parseLogEntry(le)
		if perr != nil {
			return nil, trib.Errorf("front: following: %w", perr)
		}
		applyLogEntry(f, act, target)
	}
	out := make([]string, 0, len(f))
	for name := range f {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Home assembles user's home feed: their own Tribs plus every followee's,
// merged in canonical total order and truncated to the most recent
// MaxTribFetch entries.
func (s *Server) Home(ctx context.Context, user string) ([]*trib.Trib, error) {
	if err := s.validateSignedUp(ctx, user); err != nil {
		return nil, err
	}
	own, err := s.Tribs(ctx, user)
	if err != nil {
		return nil, err
	}
	followees, err := s.Following(ctx, user)
	if err != nil {
		return nil, err
	}

	all := make([]*trib.Trib, 0, len(own))
	all = append(all, own...)
	for _, f := range followees {
		ft, err := s.Tribs(ctx, f)
		if err != nil {
			return nil, err
		}
		all = append(all, ft...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Less(all[j]) })
	if len(all) > trib.MaxTribFetch {
		all = all[len(all)-trib.MaxTribFetch:]
	}
	return all, nil
}
